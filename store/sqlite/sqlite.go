/*
Package sqlite provides a SQLite-backed implementation of billing.TxStore.

PURPOSE:
  Durable storage for the front desk. The in-memory store is the default;
  this adapter is selected with -db / FRONTDESK_DB_PATH. The same SQL runs
  on a plain connection or inside a transaction, so company payment
  reconciliation commits payment, statuses and audit entry together.

KEY TABLES:
  reservations:     One row per stay; payments, consumptions and the
                    advance payment are JSON columns
  companies:        Billing entities
  company_payments: Company-level payments (not tied to a stay)
  rooms, guests:    Referenced by reservations
  users:            Front-desk operators and their roles
  audit_log:        Append-only audit trail

MONEY:
  Amounts are stored as decimal strings, never REAL, so a value read back
  compares equal to the value written.

CONNECTIONS:
  The pool is limited to one connection. SQLite allows a single writer
  anyway, and ":memory:" databases exist per connection, so a larger pool
  would hand out empty databases.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/frontdesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/billing"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements billing.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
}

var _ billing.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{queries: queries{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		room_id TEXT NOT NULL,
		guest_id TEXT NOT NULL,
		company_id TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		adults INTEGER NOT NULL DEFAULT 0,
		children INTEGER NOT NULL DEFAULT 0,
		daily_rate TEXT NOT NULL,
		consumptions_json TEXT NOT NULL DEFAULT '[]',
		payments_json TEXT NOT NULL DEFAULT '[]',
		advance_json TEXT NOT NULL DEFAULT '{}',
		observations TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_company_status
		ON reservations(company_id, status) WHERE company_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_reservations_room
		ON reservations(room_id);
	CREATE INDEX IF NOT EXISTS idx_reservations_guest
		ON reservations(guest_id);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		tax_id TEXT,
		email TEXT,
		phone TEXT
	);

	CREATE TABLE IF NOT EXISTS company_payments (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		company_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		method TEXT NOT NULL,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_company_payments_company
		ON company_payments(company_id);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		room_type TEXT,
		status TEXT NOT NULL,
		price TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		address TEXT,
		document TEXT
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		username TEXT NOT NULL UNIQUE,
		name TEXT,
		email TEXT,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		ts TEXT NOT NULL,
		user_id TEXT,
		username TEXT,
		action TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_ts
		ON audit_log(ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (billing.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store billing.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// QUERIES - billing.Store over a querier
// =============================================================================

type queries struct {
	q querier
}

// upsert inserts or replaces a row, keeping its original seq so list
// order follows insertion order.
func (qs *queries) upsert(ctx context.Context, table string, columns []string, args ...any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	updates := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, seq)
		VALUES (%s, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %s))
		ON CONFLICT(id) DO UPDATE SET %s
	`, table, strings.Join(columns, ", "), placeholders, table, strings.Join(updates, ", "))

	if _, err := qs.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

// deleteByID removes a row and reports whether it existed.
func (qs *queries) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := qs.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

const reservationColumns = `id, room_id, guest_id, company_id, start_date, end_date, status,
	adults, children, daily_rate, consumptions_json, payments_json, advance_json, observations`

func (qs *queries) GetReservation(ctx context.Context, id billing.ReservationID) (billing.Reservation, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	if err != nil {
		return billing.Reservation{}, fmt.Errorf("failed to query reservation: %w", err)
	}
	list, err := scanReservations(rows)
	if err != nil {
		return billing.Reservation{}, err
	}
	if len(list) == 0 {
		return billing.Reservation{}, billing.ReservationNotFound(id)
	}
	return list[0], nil
}

func (qs *queries) ListReservations(ctx context.Context, filter billing.ReservationFilter) ([]billing.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if filter.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if filter.RoomID != "" {
		where = append(where, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.GuestID != "" {
		where = append(where, "guest_id = ?")
		args = append(args, filter.GuestID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}

	query := "SELECT " + reservationColumns + " FROM reservations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	return scanReservations(rows)
}

func (qs *queries) SaveReservation(ctx context.Context, r billing.Reservation) error {
	consumptions, err := json.Marshal(nonNilConsumptions(r.Consumptions))
	if err != nil {
		return fmt.Errorf("failed to encode consumptions: %w", err)
	}
	payments, err := json.Marshal(nonNilPayments(r.Payments))
	if err != nil {
		return fmt.Errorf("failed to encode payments: %w", err)
	}
	advance, err := json.Marshal(r.AdvancePayment)
	if err != nil {
		return fmt.Errorf("failed to encode advance payment: %w", err)
	}

	columns := []string{"id", "room_id", "guest_id", "company_id", "start_date", "end_date", "status",
		"adults", "children", "daily_rate", "consumptions_json", "payments_json", "advance_json", "observations"}
	return qs.upsert(ctx, "reservations", columns,
		r.ID, r.RoomID, r.GuestID, nullString(string(r.CompanyID)),
		r.StartDate.String(), r.EndDate.String(), r.Status,
		r.Adults, r.Children, r.DailyRate.String(),
		string(consumptions), string(payments), string(advance),
		nullString(r.Observations),
	)
}

func (qs *queries) DeleteReservation(ctx context.Context, id billing.ReservationID) error {
	ok, err := qs.deleteByID(ctx, "reservations", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.ReservationNotFound(id)
	}
	return nil
}

func scanReservations(rows *sql.Rows) ([]billing.Reservation, error) {
	defer rows.Close()

	var out []billing.Reservation
	for rows.Next() {
		var (
			r                       billing.Reservation
			companyID, observations sql.NullString
			start, end, rate        string
			consumptions, payments  string
			advance                 string
		)
		if err := rows.Scan(&r.ID, &r.RoomID, &r.GuestID, &companyID, &start, &end, &r.Status,
			&r.Adults, &r.Children, &rate, &consumptions, &payments, &advance, &observations); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		r.CompanyID = billing.CompanyID(companyID.String)
		r.Observations = observations.String
		r.StartDate = parseDate(start)
		r.EndDate = parseDate(end)
		r.DailyRate = parseDecimal(rate)
		if err := json.Unmarshal([]byte(consumptions), &r.Consumptions); err != nil {
			return nil, fmt.Errorf("failed to decode consumptions of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(payments), &r.Payments); err != nil {
			return nil, fmt.Errorf("failed to decode payments of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(advance), &r.AdvancePayment); err != nil {
			return nil, fmt.Errorf("failed to decode advance payment of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// COMPANIES
// =============================================================================

func (qs *queries) GetCompany(ctx context.Context, id billing.CompanyID) (billing.Company, error) {
	var (
		c                   billing.Company
		taxID, email, phone sql.NullString
	)
	err := qs.q.QueryRowContext(ctx,
		"SELECT id, name, tax_id, email, phone FROM companies WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &taxID, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Company{}, billing.CompanyNotFound(id)
	}
	if err != nil {
		return billing.Company{}, fmt.Errorf("failed to query company: %w", err)
	}
	c.TaxID, c.Email, c.Phone = taxID.String, email.String, phone.String
	return c, nil
}

func (qs *queries) ListCompanies(ctx context.Context) ([]billing.Company, error) {
	rows, err := qs.q.QueryContext(ctx, "SELECT id, name, tax_id, email, phone FROM companies ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []billing.Company
	for rows.Next() {
		var (
			c                   billing.Company
			taxID, email, phone sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &taxID, &email, &phone); err != nil {
			return nil, err
		}
		c.TaxID, c.Email, c.Phone = taxID.String, email.String, phone.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (qs *queries) SaveCompany(ctx context.Context, c billing.Company) error {
	return qs.upsert(ctx, "companies", []string{"id", "name", "tax_id", "email", "phone"},
		c.ID, c.Name, nullString(c.TaxID), nullString(c.Email), nullString(c.Phone))
}

func (qs *queries) DeleteCompany(ctx context.Context, id billing.CompanyID) error {
	ok, err := qs.deleteByID(ctx, "companies", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.CompanyNotFound(id)
	}
	return nil
}

// =============================================================================
// COMPANY PAYMENTS
// =============================================================================

const companyPaymentColumns = "id, company_id, amount, paid_on, method, notes"

func (qs *queries) GetCompanyPayment(ctx context.Context, id billing.CompanyPaymentID) (billing.CompanyPayment, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT "+companyPaymentColumns+" FROM company_payments WHERE id = ?", id)
	if err != nil {
		return billing.CompanyPayment{}, fmt.Errorf("failed to query company payment: %w", err)
	}
	list, err := scanCompanyPayments(rows)
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	if len(list) == 0 {
		return billing.CompanyPayment{}, billing.CompanyPaymentNotFound(id)
	}
	return list[0], nil
}

func (qs *queries) ListCompanyPayments(ctx context.Context, companyID billing.CompanyID) ([]billing.CompanyPayment, error) {
	query := "SELECT " + companyPaymentColumns + " FROM company_payments"
	var args []any
	if companyID != "" {
		query += " WHERE company_id = ?"
		args = append(args, companyID)
	}
	query += " ORDER BY paid_on, seq"

	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query company payments: %w", err)
	}
	return scanCompanyPayments(rows)
}

func (qs *queries) SaveCompanyPayment(ctx context.Context, p billing.CompanyPayment) error {
	return qs.upsert(ctx, "company_payments",
		[]string{"id", "company_id", "amount", "paid_on", "method", "notes"},
		p.ID, p.CompanyID, p.Amount.String(), p.Date.String(), p.Method, nullString(p.Notes))
}

func (qs *queries) DeleteCompanyPayment(ctx context.Context, id billing.CompanyPaymentID) error {
	ok, err := qs.deleteByID(ctx, "company_payments", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.CompanyPaymentNotFound(id)
	}
	return nil
}

func scanCompanyPayments(rows *sql.Rows) ([]billing.CompanyPayment, error) {
	defer rows.Close()

	var out []billing.CompanyPayment
	for rows.Next() {
		var (
			p            billing.CompanyPayment
			amount, date string
			notes        sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &amount, &date, &p.Method, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan company payment: %w", err)
		}
		p.Amount = parseDecimal(amount)
		p.Date = parseDate(date)
		p.Notes = notes.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// ROOMS
// =============================================================================

func (qs *queries) GetRoom(ctx context.Context, id billing.RoomID) (billing.Room, error) {
	var (
		r        billing.Room
		roomType sql.NullString
		price    string
	)
	err := qs.q.QueryRowContext(ctx,
		"SELECT id, name, room_type, status, price, capacity FROM rooms WHERE id = ?", id,
	).Scan(&r.ID, &r.Name, &roomType, &r.Status, &price, &r.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Room{}, billing.RoomNotFound(id)
	}
	if err != nil {
		return billing.Room{}, fmt.Errorf("failed to query room: %w", err)
	}
	r.Type = roomType.String
	r.Price = parseDecimal(price)
	return r, nil
}

func (qs *queries) ListRooms(ctx context.Context) ([]billing.Room, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT id, name, room_type, status, price, capacity FROM rooms ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var out []billing.Room
	for rows.Next() {
		var (
			r        billing.Room
			roomType sql.NullString
			price    string
		)
		if err := rows.Scan(&r.ID, &r.Name, &roomType, &r.Status, &price, &r.Capacity); err != nil {
			return nil, err
		}
		r.Type = roomType.String
		r.Price = parseDecimal(price)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (qs *queries) SaveRoom(ctx context.Context, r billing.Room) error {
	return qs.upsert(ctx, "rooms", []string{"id", "name", "room_type", "status", "price", "capacity"},
		r.ID, r.Name, nullString(r.Type), r.Status, r.Price.String(), r.Capacity)
}

func (qs *queries) DeleteRoom(ctx context.Context, id billing.RoomID) error {
	ok, err := qs.deleteByID(ctx, "rooms", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.RoomNotFound(id)
	}
	return nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (qs *queries) GetGuest(ctx context.Context, id billing.GuestID) (billing.Guest, error) {
	var (
		g                               billing.Guest
		email, phone, address, document sql.NullString
	)
	err := qs.q.QueryRowContext(ctx,
		"SELECT id, name, email, phone, address, document FROM guests WHERE id = ?", id,
	).Scan(&g.ID, &g.Name, &email, &phone, &address, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Guest{}, billing.GuestNotFound(id)
	}
	if err != nil {
		return billing.Guest{}, fmt.Errorf("failed to query guest: %w", err)
	}
	g.Email, g.Phone, g.Address, g.Document = email.String, phone.String, address.String, document.String
	return g, nil
}

func (qs *queries) ListGuests(ctx context.Context) ([]billing.Guest, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT id, name, email, phone, address, document FROM guests ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	var out []billing.Guest
	for rows.Next() {
		var (
			g                               billing.Guest
			email, phone, address, document sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &email, &phone, &address, &document); err != nil {
			return nil, err
		}
		g.Email, g.Phone, g.Address, g.Document = email.String, phone.String, address.String, document.String
		out = append(out, g)
	}
	return out, rows.Err()
}

func (qs *queries) SaveGuest(ctx context.Context, g billing.Guest) error {
	return qs.upsert(ctx, "guests", []string{"id", "name", "email", "phone", "address", "document"},
		g.ID, g.Name, nullString(g.Email), nullString(g.Phone), nullString(g.Address), nullString(g.Document))
}

func (qs *queries) DeleteGuest(ctx context.Context, id billing.GuestID) error {
	ok, err := qs.deleteByID(ctx, "guests", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.GuestNotFound(id)
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (qs *queries) GetUser(ctx context.Context, id billing.UserID) (billing.User, error) {
	var (
		u           billing.User
		name, email sql.NullString
	)
	err := qs.q.QueryRowContext(ctx,
		"SELECT id, username, name, email, role, active FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Username, &name, &email, &u.Role, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.User{}, billing.UserNotFound(id)
	}
	if err != nil {
		return billing.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	u.Name, u.Email = name.String, email.String
	return u, nil
}

func (qs *queries) ListUsers(ctx context.Context) ([]billing.User, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT id, username, name, email, role, active FROM users ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []billing.User
	for rows.Next() {
		var (
			u           billing.User
			name, email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Username, &name, &email, &u.Role, &u.Active); err != nil {
			return nil, err
		}
		u.Name, u.Email = name.String, email.String
		out = append(out, u)
	}
	return out, rows.Err()
}

func (qs *queries) SaveUser(ctx context.Context, u billing.User) error {
	return qs.upsert(ctx, "users", []string{"id", "username", "name", "email", "role", "active"},
		u.ID, u.Username, nullString(u.Name), nullString(u.Email), u.Role, u.Active)
}

func (qs *queries) DeleteUser(ctx context.Context, id billing.UserID) error {
	ok, err := qs.deleteByID(ctx, "users", string(id))
	if err != nil {
		return err
	}
	if !ok {
		return billing.UserNotFound(id)
	}
	return nil
}

// =============================================================================
// AUDIT LOG (billing.AuditLog interface)
// =============================================================================

func (qs *queries) AppendAudit(ctx context.Context, e billing.AuditEntry) error {
	_, err := qs.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, ts, user_id, username, action, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), nullString(string(e.UserID)),
		nullString(e.Username), e.Action, nullString(e.Details))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// QueryAudit filters in SQL where it can and applies the rest of the
// filter in Go, so both stores share billing.AuditFilter.Matches.
func (qs *queries) QueryAudit(ctx context.Context, filter billing.AuditFilter) ([]billing.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := "SELECT id, ts, user_id, username, action, details FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"

	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []billing.AuditEntry
	for rows.Next() {
		var (
			e                         billing.AuditEntry
			ts                        string
			userID, username, details sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &userID, &username, &e.Action, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.UserID = billing.UserID(userID.String)
		e.Username = username.String
		e.Details = details.String
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, rows.Err()
}

// Reset removes every record. Used when loading demo scenarios.
func (qs *queries) Reset(ctx context.Context) error {
	for _, table := range []string{"reservations", "company_payments", "companies", "rooms", "guests", "users", "audit_log"} {
		if _, err := qs.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(s string) billing.Date {
	d, err := billing.ParseDate(s)
	if err != nil {
		return billing.Date{}
	}
	return d
}

func nonNilConsumptions(c []billing.Consumption) []billing.Consumption {
	if c == nil {
		return []billing.Consumption{}
	}
	return c
}

func nonNilPayments(p []billing.Payment) []billing.Payment {
	if p == nil {
		return []billing.Payment{}
	}
	return p
}
