package frontdesk

import (
	"context"

	"github.com/warp/frontdesk/billing"
)

// FinancialSummary reports revenue for a period and the outstanding
// company debt. An empty period means this month.
func (s *Service) FinancialSummary(ctx context.Context, period string) (billing.FinancialSummary, error) {
	if _, err := authorize(ctx, PermFinance); err != nil {
		return billing.FinancialSummary{}, err
	}
	p, err := billing.ParsePeriod(period)
	if err != nil {
		return billing.FinancialSummary{}, err
	}
	reservations, err := s.store.ListReservations(ctx, billing.ReservationFilter{})
	if err != nil {
		return billing.FinancialSummary{}, err
	}
	payments, err := s.store.ListCompanyPayments(ctx, "")
	if err != nil {
		return billing.FinancialSummary{}, err
	}
	return billing.Summarize(p, s.clock.Now(), reservations, payments), nil
}
