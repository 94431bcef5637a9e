package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REVENUE PERIODS
// =============================================================================

type Period string

const (
	PeriodAll       Period = "all"
	PeriodThisMonth Period = "this_month"
	PeriodLast7Days Period = "last_7_days"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodAll, PeriodThisMonth, PeriodLast7Days:
		return p, nil
	case "":
		return PeriodThisMonth, nil
	}
	return "", &ValidationError{Field: "period", Reason: fmt.Sprintf("unknown period %q", s)}
}

// Since returns the first day included in the period, or the zero Date for
// PeriodAll.
func (p Period) Since(now time.Time) Date {
	today := DateOf(now)
	switch p {
	case PeriodThisMonth:
		return NewDate(today.Year(), today.Month(), 1)
	case PeriodLast7Days:
		return today.AddDays(-7)
	}
	return Date{}
}

// =============================================================================
// REVENUE ENTRIES
// =============================================================================

type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientCompany    ClientType = "company"
)

type RevenueSource string

const (
	SourceAdvance        RevenueSource = "advance"
	SourceCheckout       RevenueSource = "checkout"
	SourceCompanyInvoice RevenueSource = "company_invoice"
)

// RevenueEntry is one amount of money received.
type RevenueEntry struct {
	ID         string
	Date       Date
	Source     RevenueSource
	Amount     decimal.Decimal
	Method     PaymentMethod
	ClientType ClientType
	// Reference is the reservation or company the money came through.
	Reference string
}

// RevenueEntries flattens advances, guest payments and company payments.
// Advances are dated at check-in, guest payments at check-out and company
// payments at their own date.
func RevenueEntries(reservations []Reservation, payments []CompanyPayment) []RevenueEntry {
	var entries []RevenueEntry
	for _, r := range reservations {
		client := ClientIndividual
		if r.CompanyID != "" {
			client = ClientCompany
		}
		if r.AdvancePayment.Amount.IsPositive() {
			entries = append(entries, RevenueEntry{
				ID:         string(r.ID) + "-adv",
				Date:       r.StartDate,
				Source:     SourceAdvance,
				Amount:     r.AdvancePayment.Amount,
				Method:     r.AdvancePayment.Method,
				ClientType: client,
				Reference:  string(r.ID),
			})
		}
		for i, p := range r.Payments {
			entries = append(entries, RevenueEntry{
				ID:         fmt.Sprintf("%s-pay%d", r.ID, i),
				Date:       r.EndDate,
				Source:     SourceCheckout,
				Amount:     p.Amount,
				Method:     p.Method,
				ClientType: client,
				Reference:  string(r.ID),
			})
		}
	}
	for _, p := range payments {
		entries = append(entries, RevenueEntry{
			ID:         string(p.ID),
			Date:       p.Date,
			Source:     SourceCompanyInvoice,
			Amount:     p.Amount,
			Method:     p.Method,
			ClientType: ClientCompany,
			Reference:  string(p.CompanyID),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

// =============================================================================
// FINANCIAL SUMMARY
// =============================================================================

type FinancialSummary struct {
	Period          Period
	Since           Date
	TotalRevenue    decimal.Decimal
	RevenueByMethod map[PaymentMethod]decimal.Decimal
	RevenueByClient map[ClientType]decimal.Decimal
	// TotalPending is the outstanding debt of every company with an
	// invoiced stay, clamped at zero.
	TotalPending    decimal.Decimal
	PendingInvoices []ReservationID
	Entries         []RevenueEntry
}

// Summarize builds the revenue report for a period.
func Summarize(period Period, now time.Time, reservations []Reservation, payments []CompanyPayment) FinancialSummary {
	since := period.Since(now)
	summary := FinancialSummary{
		Period:          period,
		Since:           since,
		TotalRevenue:    decimal.Zero,
		RevenueByMethod: make(map[PaymentMethod]decimal.Decimal),
		RevenueByClient: map[ClientType]decimal.Decimal{
			ClientIndividual: decimal.Zero,
			ClientCompany:    decimal.Zero,
		},
		TotalPending: decimal.Zero,
	}

	for _, e := range RevenueEntries(reservations, payments) {
		if period != PeriodAll && e.Date.Before(since) {
			continue
		}
		summary.Entries = append(summary.Entries, e)
		summary.TotalRevenue = summary.TotalRevenue.Add(e.Amount)
		summary.RevenueByMethod[e.Method] = summary.RevenueByMethod[e.Method].Add(e.Amount)
		summary.RevenueByClient[e.ClientType] = summary.RevenueByClient[e.ClientType].Add(e.Amount)
	}

	pendingCompanies := make(map[CompanyID]bool)
	var order []CompanyID
	for _, r := range reservations {
		if r.Status != StatusCheckedOutInvoiced {
			continue
		}
		summary.PendingInvoices = append(summary.PendingInvoices, r.ID)
		if !pendingCompanies[r.CompanyID] {
			pendingCompanies[r.CompanyID] = true
			order = append(order, r.CompanyID)
		}
	}
	pending := decimal.Zero
	for _, id := range order {
		pending = pending.Add(CompanyDebt(id, payments, reservations).Balance())
	}
	if pending.IsPositive() {
		summary.TotalPending = pending
	}
	return summary
}
