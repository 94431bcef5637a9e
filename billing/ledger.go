/*
ledger.go - Charges and payments for a single reservation

PURPOSE:
  Pure functions that price one stay. No dependencies, no side effects.

FORMULAS:
  nights        = max(0, EndDate - StartDate in days)
  accommodation = DailyRate * nights
  consumption   = sum(Consumptions[].Amount)
  grand total   = accommodation + consumption
  amount paid   = sum(Payments[].Amount) + AdvancePayment.Amount
  balance due   = grand total - amount paid

SIGN OF THE BALANCE:
  BalanceDue keeps its sign. An overpaid stay has a negative balance and
  the reconciler relies on that when aggregating a company's debt. Clamp
  to zero only when displaying.

SEE ALSO:
  - status.go: Uses BalanceDue to gate checkout
  - reconcile.go: Aggregates BalanceDue across a company's stays
*/
package billing

import "github.com/shopspring/decimal"

// Nights returns the number of chargeable nights. Zero-night and inverted
// ranges are not chargeable.
func Nights(r Reservation) int {
	n := r.StartDate.DaysUntil(r.EndDate)
	if n < 0 {
		return 0
	}
	return n
}

func AccommodationTotal(r Reservation) decimal.Decimal {
	return r.DailyRate.Mul(decimal.NewFromInt(int64(Nights(r))))
}

func ConsumptionTotal(r Reservation) decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Consumptions {
		total = total.Add(c.Amount)
	}
	return total
}

func GrandTotal(r Reservation) decimal.Decimal {
	return AccommodationTotal(r).Add(ConsumptionTotal(r))
}

// AmountPaid counts the guest's own payments and the advance. Company
// payments are never included here.
func AmountPaid(r Reservation) decimal.Decimal {
	total := r.AdvancePayment.Amount
	for _, p := range r.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

func BalanceDue(r Reservation) decimal.Decimal {
	return GrandTotal(r).Sub(AmountPaid(r))
}

// IsSettled reports whether a balance is paid off within SettlementTolerance.
func IsSettled(balance decimal.Decimal) bool {
	return balance.LessThanOrEqual(SettlementTolerance)
}

// =============================================================================
// FOLIO - All derived values for one reservation
// =============================================================================

// Folio is the guest bill for one reservation.
type Folio struct {
	Nights        int
	Accommodation decimal.Decimal
	Consumption   decimal.Decimal
	GrandTotal    decimal.Decimal
	AmountPaid    decimal.Decimal
	BalanceDue    decimal.Decimal
}

func FolioOf(r Reservation) Folio {
	accommodation := AccommodationTotal(r)
	consumption := ConsumptionTotal(r)
	grand := accommodation.Add(consumption)
	paid := AmountPaid(r)
	return Folio{
		Nights:        Nights(r),
		Accommodation: accommodation,
		Consumption:   consumption,
		GrandTotal:    grand,
		AmountPaid:    paid,
		BalanceDue:    grand.Sub(paid),
	}
}

// DisplayBalance is the balance clamped at zero and rounded to cents.
func (f Folio) DisplayBalance() decimal.Decimal {
	if f.BalanceDue.IsNegative() {
		return decimal.Zero
	}
	return Round2(f.BalanceDue)
}

// Settled reports whether the guest owes nothing beyond rounding noise.
func (f Folio) Settled() bool {
	return IsSettled(f.BalanceDue)
}
