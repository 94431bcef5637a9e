/*
Package billing provides the reservation billing and company-invoice engine.

PURPOSE:
  This package contains the records a hotel front desk works with and the
  pure algorithms that price them: what a stay costs, what has been paid,
  whether a guest may check out, and whether a company has settled the
  stays billed to it. Nothing here does I/O; persistence lives behind the
  Store interface and orchestration lives in the frontdesk package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: shopspring decimal, never float64
  - Date: a calendar day (stays are priced per night)
  - Reservation: one guest, one room, a contiguous date range
  - Company / CompanyPayment: batched invoicing of many stays
  - AuditEntry: who did what when

DESIGN PRINCIPLES:
  1. Precision: decimal arithmetic, two-decimal rounding for display only
  2. Ownership: stores hand out copies (Clone), never shared slices
  3. Type Safety: distinct ID types so a guest ID cannot be passed as a room ID

SEE ALSO:
  - ledger.go: Folio computation for a single reservation
  - status.go: Checkout gate
  - reconcile.go: Company debt reconciliation
  - store.go: Persistence interfaces
*/
package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// SettlementTolerance absorbs rounding noise when deciding whether a
// balance is paid off.
var SettlementTolerance = decimal.New(1, -2)

// NewMoney converts a float (API input) into a decimal amount.
func NewMoney(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustMoney parses a decimal literal and panics on malformed input.
// Intended for fixtures and constants.
func MustMoney(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Round2 rounds an amount to cents for display.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// =============================================================================
// DATE - Calendar day with day granularity
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC. Stays run from StartDate (inclusive) to
// EndDate (exclusive), so the night count is the day difference.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// DaysUntil returns the number of whole days from d to other (negative if
// other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) AddDays(n int) Date        { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) Before(other Date) bool    { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool     { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool     { return d.Time.Equal(other.Time) }
func (d Date) OnOrAfter(other Date) bool { return !d.Before(other) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ReservationID string
type CompanyID string
type CompanyPaymentID string
type RoomID string
type GuestID string
type UserID string

// =============================================================================
// RESERVATION STATUS
// =============================================================================

type Status string

const (
	StatusReserved           Status = "reserved"
	StatusConfirmed          Status = "confirmed"
	StatusConfirmedAdvance   Status = "confirmed_advance"
	StatusOccupied           Status = "occupied"
	StatusOccupiedPartial    Status = "occupied_partial"
	StatusOccupiedFull       Status = "occupied_full"
	StatusCancelled          Status = "cancelled"
	StatusNoShow             Status = "no_show"
	StatusCheckedOut         Status = "checked-out"
	StatusCheckedOutInvoiced Status = "checked-out_invoiced"
	StatusCheckedOutPaid     Status = "checked-out_paid"
)

var allStatuses = []Status{
	StatusReserved, StatusConfirmed, StatusConfirmedAdvance,
	StatusOccupied, StatusOccupiedPartial, StatusOccupiedFull,
	StatusCancelled, StatusNoShow, StatusCheckedOut,
	StatusCheckedOutInvoiced, StatusCheckedOutPaid,
}

// Statuses lists every known reservation status.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}

func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsCompanyBilled reports whether the stay's balance belongs to a company.
func (s Status) IsCompanyBilled() bool {
	return s == StatusCheckedOutInvoiced || s == StatusCheckedOutPaid
}

// IsTerminal reports whether the stay is over for front-desk purposes.
// checked-out_invoiced is not terminal: it waits for company settlement.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusNoShow, StatusCheckedOut, StatusCheckedOutPaid:
		return true
	}
	return false
}

// =============================================================================
// PAYMENTS & CHARGES
// =============================================================================

type PaymentMethod string

const (
	MethodPix      PaymentMethod = "pix"
	MethodCredit   PaymentMethod = "credit"
	MethodDebit    PaymentMethod = "debit"
	MethodTransfer PaymentMethod = "transfer"
	MethodCash     PaymentMethod = "money"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCredit, MethodDebit, MethodTransfer, MethodCash:
		return true
	}
	return false
}

// Payment is money received from the guest for one reservation.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Method PaymentMethod   `json:"method"`
}

// Consumption is an incidental charge such as minibar or laundry.
type Consumption struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// =============================================================================
// RESERVATION
// =============================================================================

type Reservation struct {
	ID             ReservationID
	RoomID         RoomID
	GuestID        GuestID
	CompanyID      CompanyID // empty when the guest pays directly
	StartDate      Date
	EndDate        Date // exclusive
	Status         Status
	Adults         int
	Children       int
	DailyRate      decimal.Decimal
	Consumptions   []Consumption
	Payments       []Payment
	AdvancePayment Payment // zero amount means none
	Observations   string
}

// Clone returns a deep copy so callers never alias a store's slices.
func (r Reservation) Clone() Reservation {
	out := r
	if r.Consumptions != nil {
		out.Consumptions = append([]Consumption(nil), r.Consumptions...)
	}
	if r.Payments != nil {
		out.Payments = append([]Payment(nil), r.Payments...)
	}
	return out
}

// =============================================================================
// COMPANIES
// =============================================================================

type Company struct {
	ID    CompanyID
	Name  string
	TaxID string
	Email string
	Phone string
}

// CompanyPayment pays down a company's aggregate debt. It is not tied to
// any single reservation.
type CompanyPayment struct {
	ID        CompanyPaymentID
	CompanyID CompanyID
	Amount    decimal.Decimal
	Date      Date
	Method    PaymentMethod
	Notes     string
}

// =============================================================================
// ROOMS, GUESTS, USERS
// =============================================================================

type RoomStatus string

const (
	RoomClean       RoomStatus = "clean"
	RoomDirty       RoomStatus = "dirty"
	RoomMaintenance RoomStatus = "maintenance"
)

func (s RoomStatus) Valid() bool {
	return s == RoomClean || s == RoomDirty || s == RoomMaintenance
}

type Room struct {
	ID       RoomID
	Name     string
	Type     string
	Status   RoomStatus
	Price    decimal.Decimal
	Capacity int
}

type Guest struct {
	ID       GuestID
	Name     string
	Email    string
	Phone    string
	Address  string
	Document string
}

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleEmployee     Role = "employee"
	RoleHousekeeping Role = "housekeeping"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee || r == RoleHousekeeping
}

type User struct {
	ID       UserID
	Username string
	Name     string
	Email    string
	Role     Role
	Active   bool
}
