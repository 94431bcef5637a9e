package billing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/billing"
)

// =============================================================================
// CHECKOUT TESTS
// =============================================================================

func TestCheckout_ScenarioA_FullPayment(t *testing.T) {
	// GIVEN: 2 nights at 150, nothing paid
	r := stay("res_a", "150", 2)
	assertMoney(t, "300", billing.GrandTotal(r))
	assertMoney(t, "300", billing.BalanceDue(r))

	// WHEN: the guest pays 300 at checkout
	result, err := billing.FinalizeCheckout(r, billing.CheckoutRequest{
		FinalPayment: billing.Payment{Amount: money("300"), Method: billing.MethodPix},
	})

	// THEN: the stay is checked out with the payment recorded
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCheckedOut, result.Reservation.Status)
	assert.False(t, result.Invoiced)
	require.Len(t, result.Reservation.Payments, 1)
	assertMoney(t, "0", billing.BalanceDue(result.Reservation))

	// AND: the input reservation is untouched
	assert.Equal(t, billing.StatusOccupied, r.Status)
	assert.Empty(t, r.Payments)
}

func TestCheckout_ScenarioB_InsufficientPayment(t *testing.T) {
	r := stay("res_b", "150", 2)

	_, err := billing.FinalizeCheckout(r, billing.CheckoutRequest{
		FinalPayment: billing.Payment{Amount: money("100"), Method: billing.MethodCash},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, billing.ErrInsufficientPayment))

	var insufficient *billing.InsufficientPaymentError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, billing.ReservationID("res_b"), insufficient.ReservationID)
	assertMoney(t, "200", insufficient.Remaining)
}

func TestCheckout_SettlementThreshold(t *testing.T) {
	tests := []struct {
		name    string
		payment string
		wantErr bool
	}{
		{"exact", "300", false},
		{"one cent short is tolerated", "299.99", false},
		{"two cents short is refused", "299.98", true},
		{"overpaid", "350", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := billing.FinalizeCheckout(stay("r", "150", 2), billing.CheckoutRequest{
				FinalPayment: billing.Payment{Amount: money(tt.payment), Method: billing.MethodDebit},
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, billing.ErrInsufficientPayment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckout_ZeroPaymentOnSettledStay(t *testing.T) {
	// GIVEN: a stay fully covered by its advance
	r := stay("res_1", "100", 1)
	r.AdvancePayment = billing.Payment{Amount: money("100"), Method: billing.MethodPix}

	// WHEN: checking out with no final payment
	result, err := billing.FinalizeCheckout(r, billing.CheckoutRequest{})

	// THEN: it succeeds and no zero payment is appended
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCheckedOut, result.Reservation.Status)
	assert.Empty(t, result.Reservation.Payments)
}

func TestCheckout_BillToCompany_AlwaysInvoices(t *testing.T) {
	balances := map[string]string{
		"owing":    "0",
		"settled":  "300",
		"overpaid": "450",
	}
	for name, paid := range balances {
		t.Run(name, func(t *testing.T) {
			r := stay("res_1", "150", 2)
			r.AdvancePayment = billing.Payment{Amount: money(paid), Method: billing.MethodTransfer}

			result, err := billing.FinalizeCheckout(r, billing.CheckoutRequest{
				BillToCompany: true,
				CompanyID:     "comp_1",
			})

			require.NoError(t, err)
			assert.True(t, result.Invoiced)
			assert.Equal(t, billing.StatusCheckedOutInvoiced, result.Reservation.Status)
			assert.Equal(t, billing.CompanyID("comp_1"), result.Reservation.CompanyID)
			assert.True(t, billing.BalanceDue(result.Reservation).Equal(result.Amount))
		})
	}
}

func TestCheckout_BillToCompany_AppendsPartialPayment(t *testing.T) {
	result, err := billing.FinalizeCheckout(stay("res_1", "150", 2), billing.CheckoutRequest{
		FinalPayment:  billing.Payment{Amount: money("50"), Method: billing.MethodCash},
		BillToCompany: true,
		CompanyID:     "comp_1",
	})

	require.NoError(t, err)
	assert.Len(t, result.Reservation.Payments, 1)
	assertMoney(t, "250", result.Amount)
}

func TestCheckout_BillToCompany_MissingCompany(t *testing.T) {
	_, err := billing.FinalizeCheckout(stay("res_1", "150", 2), billing.CheckoutRequest{BillToCompany: true})

	assert.ErrorIs(t, err, billing.ErrMissingCompany)
}

func TestCheckout_InvalidFinalPayment(t *testing.T) {
	_, err := billing.FinalizeCheckout(stay("res_1", "150", 2), billing.CheckoutRequest{
		FinalPayment: billing.Payment{Amount: money("-1"), Method: billing.MethodCash},
	})
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	_, err = billing.FinalizeCheckout(stay("res_1", "150", 2), billing.CheckoutRequest{
		FinalPayment: billing.Payment{Amount: money("300"), Method: "cheque"},
	})
	assert.ErrorIs(t, err, billing.ErrInvalidInput)
}

// =============================================================================
// EDITOR GATE TESTS
// =============================================================================

func TestCanTransitionTo(t *testing.T) {
	r := stay("res_1", "150", 2)

	assert.NoError(t, billing.CanTransitionTo(r, billing.StatusCheckedOut))
	assert.NoError(t, billing.CanTransitionTo(r, billing.StatusCancelled))
	assert.ErrorIs(t, billing.CanTransitionTo(r, billing.StatusCheckedOutInvoiced), billing.ErrMissingCompany)
	assert.ErrorIs(t, billing.CanTransitionTo(r, "archived"), billing.ErrInvalidInput)

	r.CompanyID = "comp_1"
	assert.NoError(t, billing.CanTransitionTo(r, billing.StatusCheckedOutInvoiced))
}

func TestValidateReservation(t *testing.T) {
	valid := stay("res_1", "150", 2)
	require.NoError(t, billing.ValidateReservation(valid))

	tests := []struct {
		name   string
		mutate func(r *billing.Reservation)
		want   error
	}{
		{"missing room", func(r *billing.Reservation) { r.RoomID = "" }, billing.ErrInvalidInput},
		{"missing guest", func(r *billing.Reservation) { r.GuestID = "" }, billing.ErrInvalidInput},
		{"missing dates", func(r *billing.Reservation) { r.EndDate = billing.Date{} }, billing.ErrInvalidInput},
		{"end before start", func(r *billing.Reservation) { r.EndDate = day(0) }, billing.ErrInvalidInput},
		{"unknown status", func(r *billing.Reservation) { r.Status = "lost" }, billing.ErrInvalidInput},
		{"negative rate", func(r *billing.Reservation) { r.DailyRate = money("-1") }, billing.ErrInvalidInput},
		{"negative adults", func(r *billing.Reservation) { r.Adults = -1 }, billing.ErrInvalidInput},
		{"bad payment method", func(r *billing.Reservation) {
			r.Payments = []billing.Payment{{Amount: money("10"), Method: "barter"}}
		}, billing.ErrInvalidInput},
		{"invoiced without company", func(r *billing.Reservation) { r.Status = billing.StatusCheckedOutInvoiced }, billing.ErrMissingCompany},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid.Clone()
			tt.mutate(&r)
			assert.ErrorIs(t, billing.ValidateReservation(r), tt.want)
		})
	}
}

func TestValidateCompanyPayment(t *testing.T) {
	valid := billing.CompanyPayment{CompanyID: "comp_1", Amount: money("10"), Date: day(1), Method: billing.MethodPix}
	assert.NoError(t, billing.ValidateCompanyPayment(valid))

	p := valid
	p.CompanyID = ""
	assert.ErrorIs(t, billing.ValidateCompanyPayment(p), billing.ErrMissingCompany)

	p = valid
	p.Amount = money("0")
	assert.ErrorIs(t, billing.ValidateCompanyPayment(p), billing.ErrInvalidInput)

	p = valid
	p.Date = billing.Date{}
	assert.ErrorIs(t, billing.ValidateCompanyPayment(p), billing.ErrInvalidInput)
}
