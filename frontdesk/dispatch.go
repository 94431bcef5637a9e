package frontdesk

import (
	"context"
	"fmt"

	"github.com/warp/frontdesk/billing"
)

// Outcome is what a dispatched action produced. Exactly one field is set,
// except for a removed payment where both are nil.
type Outcome struct {
	Reservation *billing.Reservation
	Payment     *billing.CompanyPayment
}

// Dispatch routes a billing action to the operation that performs it.
func (s *Service) Dispatch(ctx context.Context, a billing.Action) (Outcome, error) {
	switch a := a.(type) {
	case billing.CheckoutAction:
		r, err := s.FinalizeCheckout(ctx, a.ReservationID, a.Request)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Reservation: &r}, nil

	case billing.EditReservationAction:
		r, err := s.UpdateReservation(ctx, a.Reservation)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Reservation: &r}, nil

	case billing.RecordCompanyPaymentAction:
		p, err := s.AddCompanyPayment(ctx, a.Payment)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Payment: &p}, nil

	case billing.EditCompanyPaymentAction:
		p, err := s.UpdateCompanyPayment(ctx, a.Payment)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Payment: &p}, nil

	case billing.RemoveCompanyPaymentAction:
		return Outcome{}, s.DeleteCompanyPayment(ctx, a.PaymentID)
	}
	// Unreachable while Action stays sealed.
	return Outcome{}, fmt.Errorf("unhandled action %T", a)
}
