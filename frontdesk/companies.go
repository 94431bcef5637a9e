package frontdesk

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/frontdesk/billing"
)

func (s *Service) GetCompany(ctx context.Context, id billing.CompanyID) (billing.Company, error) {
	if _, err := authorize(ctx, PermCompanies); err != nil {
		return billing.Company{}, err
	}
	return s.store.GetCompany(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context) ([]billing.Company, error) {
	if _, err := authorize(ctx, PermCompanies); err != nil {
		return nil, err
	}
	return s.store.ListCompanies(ctx)
}

func (s *Service) AddCompany(ctx context.Context, c billing.Company) (billing.Company, error) {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return billing.Company{}, err
	}
	if err := validateCompany(c); err != nil {
		return billing.Company{}, err
	}
	c.ID = billing.CompanyID(s.ids.NewID(billing.PrefixCompany))

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := u.SaveCompany(ctx, c); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditCompanyCreated, fmt.Sprintf("Company %s added.", c.Name))
	})
	if err != nil {
		return billing.Company{}, err
	}
	return c, nil
}

func (s *Service) UpdateCompany(ctx context.Context, c billing.Company) (billing.Company, error) {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return billing.Company{}, err
	}
	if err := validateCompany(c); err != nil {
		return billing.Company{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if _, err := u.GetCompany(ctx, c.ID); err != nil {
			return err
		}
		if err := u.SaveCompany(ctx, c); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditCompanyUpdated, fmt.Sprintf("Company %s updated.", c.Name))
	})
	if err != nil {
		return billing.Company{}, err
	}
	return c, nil
}

// DeleteCompany removes a company unless one of its stays is still
// waiting for settlement.
func (s *Service) DeleteCompany(ctx context.Context, id billing.CompanyID) error {
	actor, err := authorize(ctx, PermCompanies)
	if err != nil {
		return err
	}
	return s.mutate(ctx, actor, func(u *unit) error {
		c, err := u.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		open, err := u.ListReservations(ctx, billing.ReservationFilter{
			CompanyID: id,
			Statuses:  []billing.Status{billing.StatusCheckedOutInvoiced},
		})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return &billing.ReferentialIntegrityError{
				Kind:   "company",
				ID:     string(id),
				Reason: fmt.Sprintf("%d invoiced reservation(s) awaiting settlement", len(open)),
			}
		}
		if err := u.DeleteCompany(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditCompanyDeleted, fmt.Sprintf("Company %s deleted.", c.Name))
	})
}

// CompanyStatement is a company's debt position with the records behind it.
type CompanyStatement struct {
	Company      billing.Company
	Debt         billing.DebtSummary
	Reservations []billing.Reservation // company-billed stays
	Payments     []billing.CompanyPayment
}

// CompanyStatement returns what a company owes and what it has paid.
func (s *Service) CompanyStatement(ctx context.Context, id billing.CompanyID) (CompanyStatement, error) {
	if _, err := authorize(ctx, PermCompanies); err != nil {
		return CompanyStatement{}, err
	}
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return CompanyStatement{}, err
	}
	reservations, err := s.store.ListReservations(ctx, billing.ReservationFilter{
		CompanyID: id,
		Statuses:  []billing.Status{billing.StatusCheckedOutInvoiced, billing.StatusCheckedOutPaid},
	})
	if err != nil {
		return CompanyStatement{}, err
	}
	payments, err := s.store.ListCompanyPayments(ctx, id)
	if err != nil {
		return CompanyStatement{}, err
	}
	return CompanyStatement{
		Company:      company,
		Debt:         billing.CompanyDebt(id, payments, reservations),
		Reservations: reservations,
		Payments:     payments,
	}, nil
}

func validateCompany(c billing.Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return &billing.ValidationError{Field: "name", Reason: "required"}
	}
	return nil
}
