package frontdesk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/billing"
)

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := as(employee)
	f.invoicedStay(t, "res_billed", "comp_acme", "300")
	r, err := f.svc.AddReservation(ctx, twoNightStay())
	require.NoError(t, err)

	t.Run("edit reservation", func(t *testing.T) {
		edit := r
		edit.Observations = "Extra pillow"
		out, err := f.svc.Dispatch(ctx, billing.EditReservationAction{Reservation: edit})
		require.NoError(t, err)
		require.NotNil(t, out.Reservation)
		assert.Equal(t, "Extra pillow", out.Reservation.Observations)
		assert.Nil(t, out.Payment)
	})

	t.Run("checkout", func(t *testing.T) {
		out, err := f.svc.Dispatch(ctx, billing.CheckoutAction{
			ReservationID: r.ID,
			Request:       billing.CheckoutRequest{FinalPayment: pay("300")},
		})
		require.NoError(t, err)
		assert.Equal(t, billing.StatusCheckedOut, out.Reservation.Status)
	})

	var paymentID billing.CompanyPaymentID
	t.Run("record company payment", func(t *testing.T) {
		out, err := f.svc.Dispatch(ctx, billing.RecordCompanyPaymentAction{Payment: companyPayment("comp_acme", "100")})
		require.NoError(t, err)
		require.NotNil(t, out.Payment)
		paymentID = out.Payment.ID
		assert.Equal(t, billing.StatusCheckedOutInvoiced, f.status(t, "res_billed"))
	})

	t.Run("edit company payment", func(t *testing.T) {
		p := companyPayment("comp_acme", "300")
		p.ID = paymentID
		out, err := f.svc.Dispatch(ctx, billing.EditCompanyPaymentAction{Payment: p})
		require.NoError(t, err)
		assert.True(t, out.Payment.Amount.Equal(billing.MustMoney("300")))
		assert.Equal(t, billing.StatusCheckedOutPaid, f.status(t, "res_billed"))
	})

	t.Run("remove company payment", func(t *testing.T) {
		out, err := f.svc.Dispatch(ctx, billing.RemoveCompanyPaymentAction{PaymentID: paymentID})
		require.NoError(t, err)
		assert.Nil(t, out.Reservation)
		assert.Nil(t, out.Payment)
		assert.Equal(t, billing.StatusCheckedOutInvoiced, f.status(t, "res_billed"))
	})

	t.Run("errors pass through", func(t *testing.T) {
		_, err := f.svc.Dispatch(ctx, billing.CheckoutAction{ReservationID: "res_999"})
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})
}

func TestActionKinds(t *testing.T) {
	kinds := map[string]billing.Action{
		"checkout":               billing.CheckoutAction{},
		"edit_reservation":       billing.EditReservationAction{},
		"record_company_payment": billing.RecordCompanyPaymentAction{},
		"edit_company_payment":   billing.EditCompanyPaymentAction{},
		"remove_company_payment": billing.RemoveCompanyPaymentAction{},
	}
	for want, a := range kinds {
		assert.Equal(t, want, a.Kind())
	}
}
