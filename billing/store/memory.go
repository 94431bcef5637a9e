// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/frontdesk/billing"
)

// =============================================================================
// TABLE - Insertion-ordered map
// =============================================================================

type table[K comparable, V any] struct {
	rows  map[K]V
	order []K
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

func (t *table[K, V]) get(id K) (V, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[K, V]) put(id K, v V) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[K, V]) remove(id K) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[K, V]) all() []V {
	out := make([]V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

func (t *table[K, V]) clone() *table[K, V] {
	c := &table[K, V]{rows: make(map[K]V, len(t.rows)), order: append([]K(nil), t.order...)}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

// =============================================================================
// STATE - Unlocked record set shared by Memory and its transactions
// =============================================================================

type state struct {
	reservations *table[billing.ReservationID, billing.Reservation]
	companies    *table[billing.CompanyID, billing.Company]
	payments     *table[billing.CompanyPaymentID, billing.CompanyPayment]
	rooms        *table[billing.RoomID, billing.Room]
	guests       *table[billing.GuestID, billing.Guest]
	users        *table[billing.UserID, billing.User]
	audit        []billing.AuditEntry
}

func newState() *state {
	return &state{
		reservations: newTable[billing.ReservationID, billing.Reservation](),
		companies:    newTable[billing.CompanyID, billing.Company](),
		payments:     newTable[billing.CompanyPaymentID, billing.CompanyPayment](),
		rooms:        newTable[billing.RoomID, billing.Room](),
		guests:       newTable[billing.GuestID, billing.Guest](),
		users:        newTable[billing.UserID, billing.User](),
	}
}

// snapshot copies the tables. Reservations are cloned on every read and
// write, so sharing their values between snapshots is safe.
func (s *state) snapshot() *state {
	return &state{
		reservations: s.reservations.clone(),
		companies:    s.companies.clone(),
		payments:     s.payments.clone(),
		rooms:        s.rooms.clone(),
		guests:       s.guests.clone(),
		users:        s.users.clone(),
		audit:        append([]billing.AuditEntry(nil), s.audit...),
	}
}

func (s *state) GetReservation(_ context.Context, id billing.ReservationID) (billing.Reservation, error) {
	r, ok := s.reservations.get(id)
	if !ok {
		return billing.Reservation{}, billing.ReservationNotFound(id)
	}
	return r.Clone(), nil
}

func (s *state) ListReservations(_ context.Context, filter billing.ReservationFilter) ([]billing.Reservation, error) {
	var out []billing.Reservation
	for _, r := range s.reservations.all() {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *state) SaveReservation(_ context.Context, r billing.Reservation) error {
	s.reservations.put(r.ID, r.Clone())
	return nil
}

func (s *state) DeleteReservation(_ context.Context, id billing.ReservationID) error {
	if !s.reservations.remove(id) {
		return billing.ReservationNotFound(id)
	}
	return nil
}

func (s *state) GetCompany(_ context.Context, id billing.CompanyID) (billing.Company, error) {
	c, ok := s.companies.get(id)
	if !ok {
		return billing.Company{}, billing.CompanyNotFound(id)
	}
	return c, nil
}

func (s *state) ListCompanies(_ context.Context) ([]billing.Company, error) {
	return s.companies.all(), nil
}

func (s *state) SaveCompany(_ context.Context, c billing.Company) error {
	s.companies.put(c.ID, c)
	return nil
}

func (s *state) DeleteCompany(_ context.Context, id billing.CompanyID) error {
	if !s.companies.remove(id) {
		return billing.CompanyNotFound(id)
	}
	return nil
}

func (s *state) GetCompanyPayment(_ context.Context, id billing.CompanyPaymentID) (billing.CompanyPayment, error) {
	p, ok := s.payments.get(id)
	if !ok {
		return billing.CompanyPayment{}, billing.CompanyPaymentNotFound(id)
	}
	return p, nil
}

func (s *state) ListCompanyPayments(_ context.Context, companyID billing.CompanyID) ([]billing.CompanyPayment, error) {
	var out []billing.CompanyPayment
	for _, p := range s.payments.all() {
		if companyID == "" || p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *state) SaveCompanyPayment(_ context.Context, p billing.CompanyPayment) error {
	s.payments.put(p.ID, p)
	return nil
}

func (s *state) DeleteCompanyPayment(_ context.Context, id billing.CompanyPaymentID) error {
	if !s.payments.remove(id) {
		return billing.CompanyPaymentNotFound(id)
	}
	return nil
}

func (s *state) GetRoom(_ context.Context, id billing.RoomID) (billing.Room, error) {
	r, ok := s.rooms.get(id)
	if !ok {
		return billing.Room{}, billing.RoomNotFound(id)
	}
	return r, nil
}

func (s *state) ListRooms(_ context.Context) ([]billing.Room, error) {
	return s.rooms.all(), nil
}

func (s *state) SaveRoom(_ context.Context, r billing.Room) error {
	s.rooms.put(r.ID, r)
	return nil
}

func (s *state) DeleteRoom(_ context.Context, id billing.RoomID) error {
	if !s.rooms.remove(id) {
		return billing.RoomNotFound(id)
	}
	return nil
}

func (s *state) GetGuest(_ context.Context, id billing.GuestID) (billing.Guest, error) {
	g, ok := s.guests.get(id)
	if !ok {
		return billing.Guest{}, billing.GuestNotFound(id)
	}
	return g, nil
}

func (s *state) ListGuests(_ context.Context) ([]billing.Guest, error) {
	return s.guests.all(), nil
}

func (s *state) SaveGuest(_ context.Context, g billing.Guest) error {
	s.guests.put(g.ID, g)
	return nil
}

func (s *state) DeleteGuest(_ context.Context, id billing.GuestID) error {
	if !s.guests.remove(id) {
		return billing.GuestNotFound(id)
	}
	return nil
}

func (s *state) GetUser(_ context.Context, id billing.UserID) (billing.User, error) {
	u, ok := s.users.get(id)
	if !ok {
		return billing.User{}, billing.UserNotFound(id)
	}
	return u, nil
}

func (s *state) ListUsers(_ context.Context) ([]billing.User, error) {
	return s.users.all(), nil
}

func (s *state) SaveUser(_ context.Context, u billing.User) error {
	s.users.put(u.ID, u)
	return nil
}

func (s *state) DeleteUser(_ context.Context, id billing.UserID) error {
	if !s.users.remove(id) {
		return billing.UserNotFound(id)
	}
	return nil
}

func (s *state) AppendAudit(_ context.Context, entry billing.AuditEntry) error {
	s.audit = append(s.audit, entry)
	return nil
}

func (s *state) QueryAudit(_ context.Context, filter billing.AuditFilter) ([]billing.AuditEntry, error) {
	var out []billing.AuditEntry
	for i := len(s.audit) - 1; i >= 0; i-- {
		if !filter.Matches(s.audit[i]) {
			continue
		}
		out = append(out, s.audit[i])
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *state) Reset(_ context.Context) error {
	*s = *newState()
	return nil
}

// =============================================================================
// MEMORY STORE - In-memory implementation (default, no durability)
// =============================================================================

// Memory is a billing.TxStore held entirely in process memory.
type Memory struct {
	mu sync.RWMutex
	s  *state
}

func NewMemory() *Memory {
	return &Memory{s: newState()}
}

var _ billing.TxStore = (*Memory)(nil)

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole of fn, so readers never observe a
// half-applied transaction.
func (m *Memory) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.s.snapshot()
	if err := fn(m.s); err != nil {
		m.s = snapshot
		return err
	}
	return nil
}

func (m *Memory) GetReservation(ctx context.Context, id billing.ReservationID) (billing.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetReservation(ctx, id)
}

func (m *Memory) ListReservations(ctx context.Context, filter billing.ReservationFilter) ([]billing.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListReservations(ctx, filter)
}

func (m *Memory) SaveReservation(ctx context.Context, r billing.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveReservation(ctx, r)
}

func (m *Memory) DeleteReservation(ctx context.Context, id billing.ReservationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteReservation(ctx, id)
}

func (m *Memory) GetCompany(ctx context.Context, id billing.CompanyID) (billing.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetCompany(ctx, id)
}

func (m *Memory) ListCompanies(ctx context.Context) ([]billing.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListCompanies(ctx)
}

func (m *Memory) SaveCompany(ctx context.Context, c billing.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveCompany(ctx, c)
}

func (m *Memory) DeleteCompany(ctx context.Context, id billing.CompanyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteCompany(ctx, id)
}

func (m *Memory) GetCompanyPayment(ctx context.Context, id billing.CompanyPaymentID) (billing.CompanyPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetCompanyPayment(ctx, id)
}

func (m *Memory) ListCompanyPayments(ctx context.Context, companyID billing.CompanyID) ([]billing.CompanyPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListCompanyPayments(ctx, companyID)
}

func (m *Memory) SaveCompanyPayment(ctx context.Context, p billing.CompanyPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveCompanyPayment(ctx, p)
}

func (m *Memory) DeleteCompanyPayment(ctx context.Context, id billing.CompanyPaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteCompanyPayment(ctx, id)
}

func (m *Memory) GetRoom(ctx context.Context, id billing.RoomID) (billing.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetRoom(ctx, id)
}

func (m *Memory) ListRooms(ctx context.Context) ([]billing.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListRooms(ctx)
}

func (m *Memory) SaveRoom(ctx context.Context, r billing.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveRoom(ctx, r)
}

func (m *Memory) DeleteRoom(ctx context.Context, id billing.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteRoom(ctx, id)
}

func (m *Memory) GetGuest(ctx context.Context, id billing.GuestID) (billing.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetGuest(ctx, id)
}

func (m *Memory) ListGuests(ctx context.Context) ([]billing.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListGuests(ctx)
}

func (m *Memory) SaveGuest(ctx context.Context, g billing.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveGuest(ctx, g)
}

func (m *Memory) DeleteGuest(ctx context.Context, id billing.GuestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteGuest(ctx, id)
}

func (m *Memory) GetUser(ctx context.Context, id billing.UserID) (billing.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.GetUser(ctx, id)
}

func (m *Memory) ListUsers(ctx context.Context) ([]billing.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.ListUsers(ctx)
}

func (m *Memory) SaveUser(ctx context.Context, u billing.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SaveUser(ctx, u)
}

func (m *Memory) DeleteUser(ctx context.Context, id billing.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteUser(ctx, id)
}

func (m *Memory) AppendAudit(ctx context.Context, entry billing.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.AppendAudit(ctx, entry)
}

func (m *Memory) QueryAudit(ctx context.Context, filter billing.AuditFilter) ([]billing.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.QueryAudit(ctx, filter)
}

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Reset(ctx)
}
