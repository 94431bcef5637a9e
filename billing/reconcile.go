/*
reconcile.go - Company debt reconciliation

PURPOSE:
  Keeps every company-billed reservation's status consistent with the
  company's payment history.

ALGORITHM:
  1. Select the company's reservations in checked-out_invoiced or
     checked-out_paid. None selected: return the input unchanged.
  2. totalDebt = sum(GrandTotal - AmountPaid) over the selection.
  3. totalPaid = sum of every CompanyPayment for the company, regardless
     of date.
  4. settled   = totalPaid >= totalDebt
  5. Every selected reservation gets the same status: checked-out_paid
     when settled, checked-out_invoiced otherwise.
  6. Everything else passes through untouched.

ALL-OR-NOTHING:
  Companies pay batched invoices with transfers that do not line up with
  individual stays, so settlement is decided for the aggregate. A partial
  payment never marks some stays paid and others not.

RECOMPUTE FROM SCRATCH:
  There is no incremental state. Every payment mutation recomputes the
  aggregate from the full post-mutation payment set, which makes
  Reconcile idempotent.

SEE ALSO:
  - ledger.go: GrandTotal, AmountPaid
  - frontdesk/payments.go: Runs Reconcile inside the payment transaction
*/
package billing

import "github.com/shopspring/decimal"

// DebtSummary is a company's aggregate position.
type DebtSummary struct {
	CompanyID    CompanyID
	TotalDebt    decimal.Decimal
	TotalPaid    decimal.Decimal
	Settled      bool
	Reservations []ReservationID // company-billed stays included in TotalDebt
}

// Balance is what the company still owes. Negative means credit.
func (d DebtSummary) Balance() decimal.Decimal {
	return d.TotalDebt.Sub(d.TotalPaid)
}

// CompanyDebt aggregates a company's billed stays against its payments.
// Settled is false when the company has no billed stays.
func CompanyDebt(companyID CompanyID, payments []CompanyPayment, reservations []Reservation) DebtSummary {
	summary := DebtSummary{
		CompanyID: companyID,
		TotalDebt: decimal.Zero,
		TotalPaid: decimal.Zero,
	}
	for _, r := range reservations {
		if r.CompanyID != companyID || !r.Status.IsCompanyBilled() {
			continue
		}
		summary.TotalDebt = summary.TotalDebt.Add(BalanceDue(r))
		summary.Reservations = append(summary.Reservations, r.ID)
	}
	for _, p := range payments {
		if p.CompanyID == companyID {
			summary.TotalPaid = summary.TotalPaid.Add(p.Amount)
		}
	}
	if len(summary.Reservations) > 0 {
		summary.Settled = summary.TotalPaid.GreaterThanOrEqual(summary.TotalDebt)
	}
	return summary
}

// Reconcile returns reservations with the company's billed stays set to
// checked-out_paid or checked-out_invoiced. The input slices are not
// modified; when nothing is selected the input slice itself is returned.
func Reconcile(companyID CompanyID, payments []CompanyPayment, reservations []Reservation) []Reservation {
	summary := CompanyDebt(companyID, payments, reservations)
	if len(summary.Reservations) == 0 {
		return reservations
	}

	status := StatusCheckedOutInvoiced
	if summary.Settled {
		status = StatusCheckedOutPaid
	}

	out := make([]Reservation, len(reservations))
	for i, r := range reservations {
		out[i] = r.Clone()
		if r.CompanyID == companyID && r.Status.IsCompanyBilled() {
			out[i].Status = status
		}
	}
	return out
}

// StatusChanges lists the reservations whose status differs between two
// slices of equal order, as produced by Reconcile.
func StatusChanges(before, after []Reservation) []Reservation {
	var changed []Reservation
	for i := range after {
		if i < len(before) && before[i].ID == after[i].ID && before[i].Status == after[i].Status {
			continue
		}
		changed = append(changed, after[i])
	}
	return changed
}
