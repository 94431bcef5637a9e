/*
store.go - Persistence interface for front-desk records

PURPOSE:
  Defines the interface between the billing engine and storage. One Store
  owns every record; reads return copies so no caller can alias stored
  slices.

KEY INTERFACES:
  Store:    CRUD for reservations, companies, company payments, rooms,
            guests and users, plus the audit log
  AuditLog: Append-only audit trail
  TxStore:  Store plus atomic multi-record writes

CONTRACT:
  - Get* returns a *NotFoundError (errors.Is ErrNotFound) for unknown ids
  - Save* inserts or replaces by id; ids are assigned by the caller
  - Delete* returns a *NotFoundError for unknown ids
  - Referential checks (room in use, company with open invoices) are the
    service's job; the store only persists

ATOMICITY:
  Recording a company payment touches the payment list, the statuses of
  the company's reservations and the audit log. WithTx makes the three
  writes visible together or not at all.

IMPLEMENTATIONS:
  - billing/store/memory.go: In-memory (default, no durability)
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - frontdesk/service.go: The only writer
*/
package billing

import (
	"context"
	"time"
)

// =============================================================================
// FILTERS
// =============================================================================

// ReservationFilter narrows ListReservations. Zero fields match everything.
type ReservationFilter struct {
	CompanyID CompanyID
	RoomID    RoomID
	GuestID   GuestID
	Statuses  []Status
}

func (f ReservationFilter) Matches(r Reservation) bool {
	if f.CompanyID != "" && r.CompanyID != f.CompanyID {
		return false
	}
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.GuestID != "" && r.GuestID != f.GuestID {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if r.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	AuditLog

	GetReservation(ctx context.Context, id ReservationID) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	SaveReservation(ctx context.Context, r Reservation) error
	DeleteReservation(ctx context.Context, id ReservationID) error

	GetCompany(ctx context.Context, id CompanyID) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	SaveCompany(ctx context.Context, c Company) error
	DeleteCompany(ctx context.Context, id CompanyID) error

	GetCompanyPayment(ctx context.Context, id CompanyPaymentID) (CompanyPayment, error)
	// ListCompanyPayments returns one company's payments, or all payments
	// when companyID is empty.
	ListCompanyPayments(ctx context.Context, companyID CompanyID) ([]CompanyPayment, error)
	SaveCompanyPayment(ctx context.Context, p CompanyPayment) error
	DeleteCompanyPayment(ctx context.Context, id CompanyPaymentID) error

	GetRoom(ctx context.Context, id RoomID) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SaveRoom(ctx context.Context, r Room) error
	DeleteRoom(ctx context.Context, id RoomID) error

	GetGuest(ctx context.Context, id GuestID) (Guest, error)
	ListGuests(ctx context.Context) ([]Guest, error)
	SaveGuest(ctx context.Context, g Guest) error
	DeleteGuest(ctx context.Context, id GuestID) error

	GetUser(ctx context.Context, id UserID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SaveUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id UserID) error

	// Reset removes every record, audit entries included.
	Reset(ctx context.Context) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store passed to fn
	// is rolled back. If fn returns nil, the writes are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AUDIT LOG - Who did what when
// =============================================================================

// AuditEntry records one state-changing action. Entries are never updated
// or deleted.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	UserID    UserID
	Username  string
	Action    AuditAction
	Details   string
}

// AuditAction is the human-readable label of a mutation.
type AuditAction string

const (
	AuditReservationCreated    AuditAction = "Reservation Created"
	AuditReservationUpdated    AuditAction = "Reservation Updated"
	AuditReservationDeleted    AuditAction = "Reservation Deleted"
	AuditCheckoutPaid          AuditAction = "Checkout (Paid)"
	AuditCheckoutInvoiced      AuditAction = "Checkout (Invoiced)"
	AuditCompanyCreated        AuditAction = "Company Created"
	AuditCompanyUpdated        AuditAction = "Company Updated"
	AuditCompanyDeleted        AuditAction = "Company Deleted"
	AuditCompanyPaymentAdded   AuditAction = "Company Payment"
	AuditCompanyPaymentUpdated AuditAction = "Company Payment Updated"
	AuditCompanyPaymentDeleted AuditAction = "Company Payment Deleted"
	AuditReconciliation        AuditAction = "Reconciliation"
	AuditRoomCreated           AuditAction = "Room Created"
	AuditRoomUpdated           AuditAction = "Room Updated"
	AuditRoomDeleted           AuditAction = "Room Deleted"
	AuditGuestCreated          AuditAction = "Guest Created"
	AuditGuestUpdated          AuditAction = "Guest Updated"
	AuditGuestDeleted          AuditAction = "Guest Deleted"
	AuditUserCreated           AuditAction = "User Created"
	AuditUserUpdated           AuditAction = "User Updated"
	AuditUserDeleted           AuditAction = "User Deleted"
	AuditUserStatus            AuditAction = "User Status"
	AuditScenarioLoaded        AuditAction = "Scenario Loaded"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	// QueryAudit returns matching entries, newest first.
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	UserID  UserID
	Actions []AuditAction
	From    *time.Time
	To      *time.Time
	// Search matches Action or Details case-insensitively.
	Search string
	Limit  int
}

func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if e.Action == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	if f.Search != "" && !containsFold(string(e.Action), f.Search) && !containsFold(e.Details, f.Search) {
		return false
	}
	return true
}
