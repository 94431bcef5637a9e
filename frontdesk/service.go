/*
Package frontdesk is the single writer over the billing store.

PURPOSE:
  Every front-desk mutation goes through Service. It checks the operator's
  role, runs the billing rules, persists the result and appends exactly one
  audit entry, all inside one store transaction.

SINGLE WRITER:
  Mutations are serialized behind one mutex and each runs inside
  Store.WithTx. Recording a company payment therefore reads the
  post-mutation payment set, recomputes every affected reservation status
  and commits both together; no other payment mutation can interleave.
  Reads go straight to the store, which is internally synchronized.

AFTER COMMIT:
  Committed audit entries are counted by the Recorder (Prometheus) and
  handed to the Publisher (Kafka). Neither can fail a mutation.

SEE ALSO:
  - billing/: Pure rules (ledger, checkout gate, reconciler)
  - access.go: Roles and permissions
  - payments.go: Company payments and reconciliation
*/
package frontdesk

import (
	"context"
	"sync"

	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/clock"
	"go.uber.org/zap"
)

// Publisher receives committed changes for delivery outside the process.
// Implementations must not block.
type Publisher interface {
	PublishAudit(entry billing.AuditEntry)
	PublishSettlement(summary billing.DebtSummary)
}

// Recorder counts business events.
type Recorder interface {
	CheckoutCompleted(invoiced bool)
	CheckoutRejected(reason string)
	CompanyPaymentChanged(op string)
	Reconciled(settled bool, statusChanges int)
	AuditAppended(action billing.AuditAction)
}

type nopPublisher struct{}

func (nopPublisher) PublishAudit(billing.AuditEntry)       {}
func (nopPublisher) PublishSettlement(billing.DebtSummary) {}

type nopRecorder struct{}

func (nopRecorder) CheckoutCompleted(bool)            {}
func (nopRecorder) CheckoutRejected(string)           {}
func (nopRecorder) CompanyPaymentChanged(string)      {}
func (nopRecorder) Reconciled(bool, int)              {}
func (nopRecorder) AuditAppended(billing.AuditAction) {}

// Service holds all dependencies for front-desk operations.
type Service struct {
	store     billing.TxStore
	ids       billing.IDGenerator
	clock     clock.Clock
	logger    *zap.Logger
	publisher Publisher
	recorder  Recorder

	mu       sync.Mutex // serializes mutations
	scenario string
}

type Option func(*Service)

func WithIDGenerator(g billing.IDGenerator) Option { return func(s *Service) { s.ids = g } }
func WithClock(c clock.Clock) Option               { return func(s *Service) { s.clock = c } }
func WithLogger(l *zap.Logger) Option              { return func(s *Service) { s.logger = l } }
func WithPublisher(p Publisher) Option             { return func(s *Service) { s.publisher = p } }
func WithRecorder(r Recorder) Option               { return func(s *Service) { s.recorder = r } }

// NewService creates a service over store. Without options it uses UUID
// ids, the system clock, a no-op logger and no publisher.
func NewService(store billing.TxStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ids:       billing.UUIDGenerator{},
		clock:     clock.Real{},
		logger:    zap.NewNop(),
		publisher: nopPublisher{},
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("frontdesk")
	return s
}

// =============================================================================
// UNIT OF WORK
// =============================================================================

// unit is the view of the store a mutation works through. Writes made via
// its embedded Store commit or roll back together.
type unit struct {
	billing.Store
	svc         *Service
	actor       Actor
	entries     []billing.AuditEntry
	settlements []billing.DebtSummary
}

// audit appends one entry to the audit log inside the transaction.
func (u *unit) audit(ctx context.Context, action billing.AuditAction, details string) error {
	entry := billing.AuditEntry{
		ID:        u.svc.ids.NewID(billing.PrefixAudit),
		Timestamp: u.svc.clock.Now(),
		UserID:    u.actor.ID,
		Username:  u.actor.Username,
		Action:    action,
		Details:   details,
	}
	if err := u.AppendAudit(ctx, entry); err != nil {
		return err
	}
	u.entries = append(u.entries, entry)
	return nil
}

// mutate runs fn as one transaction under the writer lock and publishes
// what it recorded once the transaction has committed.
func (s *Service) mutate(ctx context.Context, actor Actor, fn func(u *unit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var committed *unit
	err := s.store.WithTx(ctx, func(store billing.Store) error {
		u := &unit{Store: store, svc: s, actor: actor}
		if err := fn(u); err != nil {
			return err
		}
		committed = u
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range committed.entries {
		s.recorder.AuditAppended(e.Action)
		s.publisher.PublishAudit(e)
		s.logger.Info("mutation committed",
			zap.String("action", string(e.Action)),
			zap.String("user_id", string(e.UserID)),
			zap.String("audit_id", e.ID),
		)
	}
	for _, d := range committed.settlements {
		s.publisher.PublishSettlement(d)
	}
	return nil
}

// guestName resolves a guest for audit details, falling back to the id.
func guestName(ctx context.Context, store billing.Store, id billing.GuestID) string {
	g, err := store.GetGuest(ctx, id)
	if err != nil || g.Name == "" {
		return string(id)
	}
	return g.Name
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

// AuditTrail returns audit entries, newest first.
func (s *Service) AuditTrail(ctx context.Context, filter billing.AuditFilter) ([]billing.AuditEntry, error) {
	if _, err := authorize(ctx, PermAudit); err != nil {
		return nil, err
	}
	return s.store.QueryAudit(ctx, filter)
}
