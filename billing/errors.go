/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure the engine can report is a synchronous return value; the
  engine never logs or swallows an error.

ERROR CATEGORIES:
  1. Checkout errors - Balance not covered, company missing
  2. Integrity errors - Delete blocked by dependent records
  3. Lookup errors - Unknown identifiers
  4. Validation errors - Malformed input
  5. Access errors - Role does not allow the action

USAGE:
  Callers match sentinels with errors.Is and pull details with errors.As:

    var ipe *billing.InsufficientPaymentError
    if errors.As(err, &ipe) {
        fmt.Println("still owed:", ipe.Remaining)
    }

SEE ALSO:
  - status.go: Checkout errors
  - store.go: Lookup and integrity errors
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientPayment is returned when a direct checkout leaves more
	// than the settlement tolerance unpaid.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrMissingCompany is returned when a reservation would be invoiced
	// without a company to bill.
	ErrMissingCompany = errors.New("missing company")

	// ErrReferentialIntegrity is returned when a delete would orphan
	// dependent records.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrNotFound is returned when an identifier does not match a record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a record violates a field constraint.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the acting user may not perform an action.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPaymentError reports how much remains due after the final
// payment was applied.
type InsufficientPaymentError struct {
	ReservationID ReservationID
	Remaining     decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: reservation %s still owes %s",
		e.ReservationID, e.Remaining.StringFixed(2))
}

func (e *InsufficientPaymentError) Unwrap() error {
	return ErrInsufficientPayment
}

// MissingCompanyError is returned when invoicing has no company reference.
type MissingCompanyError struct {
	ReservationID ReservationID
}

func (e *MissingCompanyError) Error() string {
	if e.ReservationID == "" {
		return "missing company: invoiced reservations require a company"
	}
	return fmt.Sprintf("missing company: reservation %s cannot be invoiced without a company", e.ReservationID)
}

func (e *MissingCompanyError) Unwrap() error {
	return ErrMissingCompany
}

// ReferentialIntegrityError names the record that could not be deleted and why.
type ReferentialIntegrityError struct {
	Kind   string // "room", "guest", "company"
	ID     string
	Reason string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: %s", e.Kind, e.ID, e.Reason)
}

func (e *ReferentialIntegrityError) Unwrap() error {
	return ErrReferentialIntegrity
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ForbiddenError names the role and the action it was denied.
type ForbiddenError struct {
	Role   Role
	Action string
}

func (e *ForbiddenError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("forbidden: %s requires an authenticated user", e.Action)
	}
	return fmt.Sprintf("forbidden: role %s may not %s", e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrMissingCompany) ||
		errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the request was valid but blocked by existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrReferentialIntegrity)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden returns true if the acting user lacks permission.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ReservationNotFound and friends build NotFoundErrors for store implementations.
func ReservationNotFound(id ReservationID) error       { return notFound("reservation", string(id)) }
func CompanyNotFound(id CompanyID) error               { return notFound("company", string(id)) }
func CompanyPaymentNotFound(id CompanyPaymentID) error { return notFound("company payment", string(id)) }
func RoomNotFound(id RoomID) error                     { return notFound("room", string(id)) }
func GuestNotFound(id GuestID) error                   { return notFound("guest", string(id)) }
func UserNotFound(id UserID) error                     { return notFound("user", string(id)) }
