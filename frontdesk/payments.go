package frontdesk

import (
	"context"
	"fmt"

	"github.com/warp/frontdesk/billing"
	"go.uber.org/zap"
)

// ListCompanyPayments returns a company's payments, or every payment when
// companyID is empty.
func (s *Service) ListCompanyPayments(ctx context.Context, companyID billing.CompanyID) ([]billing.CompanyPayment, error) {
	if _, err := authorize(ctx, PermCompanies); err != nil {
		return nil, err
	}
	return s.store.ListCompanyPayments(ctx, companyID)
}

// AddCompanyPayment records a payment and re-settles the company's stays
// in the same transaction.
func (s *Service) AddCompanyPayment(ctx context.Context, p billing.CompanyPayment) (billing.CompanyPayment, error) {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	if err := billing.ValidateCompanyPayment(p); err != nil {
		return billing.CompanyPayment{}, err
	}
	p.ID = billing.CompanyPaymentID(s.ids.NewID(billing.PrefixCompanyPayment))

	err = s.mutate(ctx, actor, func(u *unit) error {
		company, err := u.GetCompany(ctx, p.CompanyID)
		if err != nil {
			return err
		}
		if err := u.SaveCompanyPayment(ctx, p); err != nil {
			return err
		}
		if _, err := s.reconcileCompany(ctx, u, p.CompanyID); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditCompanyPaymentAdded,
			fmt.Sprintf("Payment of %s registered for %s.", p.Amount.StringFixed(2), company.Name))
	})
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	s.recorder.CompanyPaymentChanged("add")
	return p, nil
}

// UpdateCompanyPayment replaces a payment. When the payment moves to a
// different company both companies are re-settled.
func (s *Service) UpdateCompanyPayment(ctx context.Context, p billing.CompanyPayment) (billing.CompanyPayment, error) {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	if err := billing.ValidateCompanyPayment(p); err != nil {
		return billing.CompanyPayment{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		prev, err := u.GetCompanyPayment(ctx, p.ID)
		if err != nil {
			return err
		}
		if _, err := u.GetCompany(ctx, p.CompanyID); err != nil {
			return err
		}
		if err := u.SaveCompanyPayment(ctx, p); err != nil {
			return err
		}
		if _, err := s.reconcileCompany(ctx, u, p.CompanyID); err != nil {
			return err
		}
		if prev.CompanyID != p.CompanyID {
			if _, err := s.reconcileCompany(ctx, u, prev.CompanyID); err != nil {
				return err
			}
		}
		return u.audit(ctx, billing.AuditCompanyPaymentUpdated, fmt.Sprintf("Payment %s updated.", p.ID))
	})
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	s.recorder.CompanyPaymentChanged("update")
	return p, nil
}

// DeleteCompanyPayment removes a payment, which can move the company's
// stays back to invoiced.
func (s *Service) DeleteCompanyPayment(ctx context.Context, id billing.CompanyPaymentID) error {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		prev, err := u.GetCompanyPayment(ctx, id)
		if err != nil {
			return err
		}
		if err := u.DeleteCompanyPayment(ctx, id); err != nil {
			return err
		}
		if _, err := s.reconcileCompany(ctx, u, prev.CompanyID); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditCompanyPaymentDeleted, fmt.Sprintf("Payment %s deleted.", id))
	})
	if err != nil {
		return err
	}
	s.recorder.CompanyPaymentChanged("delete")
	return nil
}

// ReconcileAll re-settles every company and returns how many reservation
// statuses changed. One audit entry is written when anything changed.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return 0, err
	}

	var changed, companies int
	err = s.mutate(ctx, actor, func(u *unit) error {
		list, err := u.ListCompanies(ctx)
		if err != nil {
			return err
		}
		for _, c := range list {
			n, err := s.reconcileCompany(ctx, u, c.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				changed += n
				companies++
			}
		}
		if changed == 0 {
			return nil
		}
		return u.audit(ctx, billing.AuditReconciliation,
			fmt.Sprintf("%d reservation status(es) corrected across %d company(ies).", changed, companies))
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// reconcileCompany recomputes one company's settlement from the payments
// and reservations visible in u, saves the statuses that changed and
// returns how many did.
func (s *Service) reconcileCompany(ctx context.Context, u *unit, id billing.CompanyID) (int, error) {
	reservations, err := u.ListReservations(ctx, billing.ReservationFilter{CompanyID: id})
	if err != nil {
		return 0, err
	}
	payments, err := u.ListCompanyPayments(ctx, id)
	if err != nil {
		return 0, err
	}

	updated := billing.Reconcile(id, payments, reservations)
	changes := billing.StatusChanges(reservations, updated)
	for _, r := range changes {
		if err := u.SaveReservation(ctx, r); err != nil {
			return 0, err
		}
	}

	summary := billing.CompanyDebt(id, payments, updated)
	if len(summary.Reservations) > 0 {
		s.recorder.Reconciled(summary.Settled, len(changes))
	}
	if len(changes) > 0 {
		u.settlements = append(u.settlements, summary)
		s.logger.Info("company settlement changed",
			zap.String("company_id", string(id)),
			zap.Bool("settled", summary.Settled),
			zap.String("total_debt", summary.TotalDebt.StringFixed(2)),
			zap.String("total_paid", summary.TotalPaid.StringFixed(2)),
			zap.Int("status_changes", len(changes)),
		)
	}
	return len(changes), nil
}
