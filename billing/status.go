/*
status.go - Reservation status gate

PURPOSE:
  Decides which status changes are legal given the ledger state.

STATUS GRAPH:
  reserved -> confirmed -> occupied -> {checked-out, checked-out_invoiced}
  cancelled and no_show are reachable from any non-terminal state.
  checked-out_invoiced <-> checked-out_paid is owned by the reconciler.

  The graph documents the usual path through a stay. The editor gate
  (CanTransitionTo) is deliberately permissive: front-desk staff correct
  mistakes by setting any status, and the only hard rule is that an
  invoiced stay must name a company.

CHECKOUT:
  FinalizeCheckout is the one gate with financial teeth:
    - billing a company always succeeds, whatever the balance
    - paying directly fails while more than SettlementTolerance is due

SEE ALSO:
  - ledger.go: BalanceDue
  - reconcile.go: invoiced <-> paid transitions
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHECKOUT
// =============================================================================

// CheckoutRequest carries the guest's final payment and billing choice.
type CheckoutRequest struct {
	FinalPayment  Payment
	BillToCompany bool
	CompanyID     CompanyID
}

// CheckoutResult is the replacement reservation plus what the audit trail
// needs to describe it.
type CheckoutResult struct {
	Reservation Reservation
	Invoiced    bool
	// Amount is the balance transferred to the company when invoiced, or
	// the final payment collected otherwise.
	Amount decimal.Decimal
}

// FinalizeCheckout closes a stay. It never modifies res; the returned
// reservation owns fresh slices so a store can swap it in atomically.
func FinalizeCheckout(res Reservation, req CheckoutRequest) (CheckoutResult, error) {
	if req.FinalPayment.Amount.IsNegative() {
		return CheckoutResult{}, &ValidationError{Field: "final_payment.amount", Reason: "must not be negative"}
	}
	if req.FinalPayment.Amount.IsPositive() && !req.FinalPayment.Method.Valid() {
		return CheckoutResult{}, &ValidationError{Field: "final_payment.method", Reason: fmt.Sprintf("unknown payment method %q", req.FinalPayment.Method)}
	}
	if req.BillToCompany && req.CompanyID == "" {
		return CheckoutResult{}, &MissingCompanyError{ReservationID: res.ID}
	}

	next := res.Clone()
	if req.FinalPayment.Amount.IsPositive() {
		next.Payments = append(next.Payments, req.FinalPayment)
	}
	remaining := BalanceDue(next)

	if req.BillToCompany {
		next.Status = StatusCheckedOutInvoiced
		next.CompanyID = req.CompanyID
		return CheckoutResult{Reservation: next, Invoiced: true, Amount: remaining}, nil
	}

	if !IsSettled(remaining) {
		return CheckoutResult{}, &InsufficientPaymentError{ReservationID: res.ID, Remaining: remaining}
	}
	next.Status = StatusCheckedOut
	return CheckoutResult{Reservation: next, Amount: req.FinalPayment.Amount}, nil
}

// =============================================================================
// EDITOR GATE
// =============================================================================

// CanTransitionTo checks a status change made through the reservation
// editor. Only invoicing without a company is refused.
func CanTransitionTo(res Reservation, target Status) error {
	if !target.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}
	if target == StatusCheckedOutInvoiced && res.CompanyID == "" {
		return &MissingCompanyError{ReservationID: res.ID}
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateReservation checks field constraints on a reservation about to
// be stored. References to rooms, guests and companies are checked by the
// service, which can see the store.
func ValidateReservation(r Reservation) error {
	if r.RoomID == "" {
		return &ValidationError{Field: "room_id", Reason: "required"}
	}
	if r.GuestID == "" {
		return &ValidationError{Field: "guest_id", Reason: "required"}
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return &ValidationError{Field: "dates", Reason: "start and end dates are required"}
	}
	if r.EndDate.Before(r.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if !r.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}
	if r.Adults < 0 || r.Children < 0 {
		return &ValidationError{Field: "occupants", Reason: "must not be negative"}
	}
	if r.DailyRate.IsNegative() {
		return &ValidationError{Field: "daily_rate", Reason: "must not be negative"}
	}
	if r.AdvancePayment.Amount.IsNegative() {
		return &ValidationError{Field: "advance_payment.amount", Reason: "must not be negative"}
	}
	if r.AdvancePayment.Amount.IsPositive() && !r.AdvancePayment.Method.Valid() {
		return &ValidationError{Field: "advance_payment.method", Reason: fmt.Sprintf("unknown payment method %q", r.AdvancePayment.Method)}
	}
	for i, c := range r.Consumptions {
		if c.Amount.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("consumptions[%d].amount", i), Reason: "must not be negative"}
		}
	}
	for i, p := range r.Payments {
		if p.Amount.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("payments[%d].amount", i), Reason: "must not be negative"}
		}
		if !p.Method.Valid() {
			return &ValidationError{Field: fmt.Sprintf("payments[%d].method", i), Reason: fmt.Sprintf("unknown payment method %q", p.Method)}
		}
	}
	if r.Status.IsCompanyBilled() && r.CompanyID == "" {
		return &MissingCompanyError{ReservationID: r.ID}
	}
	return nil
}

// ValidateCompanyPayment checks a company payment's fields.
func ValidateCompanyPayment(p CompanyPayment) error {
	if p.CompanyID == "" {
		return &MissingCompanyError{}
	}
	if !p.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if p.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if !p.Method.Valid() {
		return &ValidationError{Field: "method", Reason: fmt.Sprintf("unknown payment method %q", p.Method)}
	}
	return nil
}
