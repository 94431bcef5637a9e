package frontdesk

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/frontdesk/billing"
	"go.uber.org/zap"
)

// GetReservation returns one reservation with its folio.
func (s *Service) GetReservation(ctx context.Context, id billing.ReservationID) (billing.Reservation, error) {
	if _, err := authorize(ctx, PermReservations); err != nil {
		return billing.Reservation{}, err
	}
	return s.store.GetReservation(ctx, id)
}

func (s *Service) ListReservations(ctx context.Context, filter billing.ReservationFilter) ([]billing.Reservation, error) {
	if _, err := authorize(ctx, PermReservations); err != nil {
		return nil, err
	}
	return s.store.ListReservations(ctx, filter)
}

// AddReservation stores a new reservation under a generated id. An empty
// status defaults to reserved.
func (s *Service) AddReservation(ctx context.Context, r billing.Reservation) (billing.Reservation, error) {
	actor, err := authorize(ctx, PermReservations)
	if err != nil {
		return billing.Reservation{}, err
	}

	r = r.Clone()
	r.ID = billing.ReservationID(s.ids.NewID(billing.PrefixReservation))
	if r.Status == "" {
		r.Status = billing.StatusReserved
	}
	s.assignConsumptionIDs(&r)
	if err := billing.ValidateReservation(r); err != nil {
		return billing.Reservation{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := checkReferences(ctx, u, r); err != nil {
			return err
		}
		if err := u.SaveReservation(ctx, r); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditReservationCreated,
			fmt.Sprintf("Reservation created for %s from %s to %s.", guestName(ctx, u, r.GuestID), r.StartDate, r.EndDate))
	})
	if err != nil {
		return billing.Reservation{}, err
	}
	return r, nil
}

// UpdateReservation replaces a reservation. The status passes through the
// editor gate, which only refuses invoicing without a company.
func (s *Service) UpdateReservation(ctx context.Context, r billing.Reservation) (billing.Reservation, error) {
	actor, err := authorize(ctx, PermReservations)
	if err != nil {
		return billing.Reservation{}, err
	}

	r = r.Clone()
	s.assignConsumptionIDs(&r)
	if err := billing.CanTransitionTo(r, r.Status); err != nil {
		return billing.Reservation{}, err
	}
	if err := billing.ValidateReservation(r); err != nil {
		return billing.Reservation{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if _, err := u.GetReservation(ctx, r.ID); err != nil {
			return err
		}
		if err := checkReferences(ctx, u, r); err != nil {
			return err
		}
		if err := u.SaveReservation(ctx, r); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditReservationUpdated,
			fmt.Sprintf("Reservation of %s updated.", guestName(ctx, u, r.GuestID)))
	})
	if err != nil {
		return billing.Reservation{}, err
	}
	return r, nil
}

func (s *Service) DeleteReservation(ctx context.Context, id billing.ReservationID) error {
	actor, err := authorize(ctx, PermReservations)
	if err != nil {
		return err
	}
	return s.mutate(ctx, actor, func(u *unit) error {
		r, err := u.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := u.DeleteReservation(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditReservationDeleted,
			fmt.Sprintf("Reservation of %s (%s) deleted.", guestName(ctx, u, r.GuestID), id))
	})
}

// FinalizeCheckout closes a stay, either collecting the balance from the
// guest or invoicing it to a company. The reservation is replaced in one
// write together with its audit entry.
func (s *Service) FinalizeCheckout(ctx context.Context, id billing.ReservationID, req billing.CheckoutRequest) (billing.Reservation, error) {
	actor, err := authorize(ctx, PermReservations)
	if err != nil {
		return billing.Reservation{}, err
	}

	var result billing.CheckoutResult
	err = s.mutate(ctx, actor, func(u *unit) error {
		res, err := u.GetReservation(ctx, id)
		if err != nil {
			return err
		}

		var company billing.Company
		if req.BillToCompany && req.CompanyID != "" {
			if company, err = u.GetCompany(ctx, req.CompanyID); err != nil {
				return err
			}
		}

		result, err = billing.FinalizeCheckout(res, req)
		if err != nil {
			return err
		}
		if err := u.SaveReservation(ctx, result.Reservation); err != nil {
			return err
		}

		guest := guestName(ctx, u, res.GuestID)
		if result.Invoiced {
			return u.audit(ctx, billing.AuditCheckoutInvoiced,
				fmt.Sprintf("Reservation of %s invoiced to %s for %s.", guest, company.Name, result.Amount.StringFixed(2)))
		}
		return u.audit(ctx, billing.AuditCheckoutPaid,
			fmt.Sprintf("Checkout of %s completed with payment of %s.", guest, result.Amount.StringFixed(2)))
	})
	if err != nil {
		s.recordCheckoutFailure(id, err)
		return billing.Reservation{}, err
	}

	s.recorder.CheckoutCompleted(result.Invoiced)
	return result.Reservation, nil
}

func (s *Service) recordCheckoutFailure(id billing.ReservationID, err error) {
	var reason string
	switch {
	case errors.Is(err, billing.ErrInsufficientPayment):
		reason = "insufficient_payment"
	case errors.Is(err, billing.ErrMissingCompany):
		reason = "missing_company"
	case errors.Is(err, billing.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, billing.ErrInvalidInput):
		reason = "invalid_input"
	default:
		s.logger.Error("checkout failed", zap.String("reservation_id", string(id)), zap.Error(err))
		return
	}
	s.recorder.CheckoutRejected(reason)
	s.logger.Debug("checkout rejected",
		zap.String("reservation_id", string(id)),
		zap.String("reason", reason),
	)
}

// checkReferences verifies the room, guest and company a reservation
// points at all exist.
func checkReferences(ctx context.Context, store billing.Store, r billing.Reservation) error {
	if _, err := store.GetRoom(ctx, r.RoomID); err != nil {
		return err
	}
	if _, err := store.GetGuest(ctx, r.GuestID); err != nil {
		return err
	}
	if r.CompanyID != "" {
		if _, err := store.GetCompany(ctx, r.CompanyID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) assignConsumptionIDs(r *billing.Reservation) {
	for i := range r.Consumptions {
		if r.Consumptions[i].ID == "" {
			r.Consumptions[i].ID = s.ids.NewID(billing.PrefixConsumption)
		}
	}
}
