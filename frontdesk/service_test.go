package frontdesk_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/billing/store"
	"github.com/warp/frontdesk/clock"
	"github.com/warp/frontdesk/frontdesk"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

var (
	admin        = frontdesk.Actor{ID: "user_admin", Username: "admin", Role: billing.RoleAdmin}
	employee     = frontdesk.Actor{ID: "user_frontdesk", Username: "frontdesk", Role: billing.RoleEmployee}
	housekeeping = frontdesk.Actor{ID: "user_housekeeping", Username: "housekeeping", Role: billing.RoleHousekeeping}
)

func as(a frontdesk.Actor) context.Context {
	return frontdesk.WithActor(context.Background(), a)
}

// mockPublisher records everything the service publishes.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAudit(entry billing.AuditEntry) {
	m.Called(entry)
}

func (m *mockPublisher) PublishSettlement(summary billing.DebtSummary) {
	m.Called(summary)
}

func (m *mockPublisher) settlements() []billing.DebtSummary {
	var out []billing.DebtSummary
	for _, c := range m.Calls {
		if c.Method == "PublishSettlement" {
			out = append(out, c.Arguments.Get(0).(billing.DebtSummary))
		}
	}
	return out
}

// fakeRecorder counts what the service reports.
type fakeRecorder struct {
	mu         sync.Mutex
	checkouts  map[bool]int
	rejections map[string]int
	payments   map[string]int
	audits     map[billing.AuditAction]int
	reconciled int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		checkouts:  make(map[bool]int),
		rejections: make(map[string]int),
		payments:   make(map[string]int),
		audits:     make(map[billing.AuditAction]int),
	}
}

func (r *fakeRecorder) CheckoutCompleted(invoiced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkouts[invoiced]++
}

func (r *fakeRecorder) CheckoutRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[reason]++
}

func (r *fakeRecorder) CompanyPaymentChanged(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[op]++
}

func (r *fakeRecorder) Reconciled(_ bool, statusChanges int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciled += statusChanges
}

func (r *fakeRecorder) AuditAppended(action billing.AuditAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits[action]++
}

type fixture struct {
	svc       *frontdesk.Service
	store     *store.Memory
	clock     *clock.FakeClock
	publisher *mockPublisher
	recorder  *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.NewMemory(),
		clock:     clock.NewFakeClock(testNow),
		publisher: &mockPublisher{},
		recorder:  newFakeRecorder(),
	}
	f.publisher.On("PublishAudit", mock.Anything).Return()
	f.publisher.On("PublishSettlement", mock.Anything).Return()

	f.svc = frontdesk.NewService(f.store,
		frontdesk.WithIDGenerator(billing.NewSequenceGenerator()),
		frontdesk.WithClock(f.clock),
		frontdesk.WithLogger(zaptest.NewLogger(t)),
		frontdesk.WithPublisher(f.publisher),
		frontdesk.WithRecorder(f.recorder),
	)
	f.seed(t)
	return f
}

// seed writes one room, two guests and two companies straight to the store.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.SaveRoom(ctx, billing.Room{ID: "room_101", Name: "101", Status: billing.RoomClean, Price: billing.MustMoney("150"), Capacity: 2}))
	require.NoError(t, f.store.SaveGuest(ctx, billing.Guest{ID: "guest_ana", Name: "Ana Souza"}))
	require.NoError(t, f.store.SaveGuest(ctx, billing.Guest{ID: "guest_bruno", Name: "Bruno Lima"}))
	require.NoError(t, f.store.SaveCompany(ctx, billing.Company{ID: "comp_acme", Name: "Acme Travel"}))
	require.NoError(t, f.store.SaveCompany(ctx, billing.Company{ID: "comp_globex", Name: "Globex Logistics"}))
}

// invoicedStay stores a checked-out_invoiced reservation of one night
// costing total for company.
func (f *fixture) invoicedStay(t *testing.T, id billing.ReservationID, company billing.CompanyID, total string) {
	t.Helper()
	today := billing.DateOf(testNow)
	require.NoError(t, f.store.SaveReservation(context.Background(), billing.Reservation{
		ID: id, RoomID: "room_101", GuestID: "guest_ana", CompanyID: company,
		StartDate: today.AddDays(-3), EndDate: today.AddDays(-2),
		Status: billing.StatusCheckedOutInvoiced, Adults: 1, DailyRate: billing.MustMoney(total),
	}))
}

func (f *fixture) status(t *testing.T, id billing.ReservationID) billing.Status {
	t.Helper()
	r, err := f.store.GetReservation(context.Background(), id)
	require.NoError(t, err)
	return r.Status
}

func (f *fixture) audit(t *testing.T, actions ...billing.AuditAction) []billing.AuditEntry {
	t.Helper()
	entries, err := f.store.QueryAudit(context.Background(), billing.AuditFilter{Actions: actions})
	require.NoError(t, err)
	return entries
}

// twoNightStay is Ana in room 101 for two nights at 150.
func twoNightStay() billing.Reservation {
	today := billing.DateOf(testNow)
	return billing.Reservation{
		RoomID:    "room_101",
		GuestID:   "guest_ana",
		StartDate: today.AddDays(-2),
		EndDate:   today,
		Status:    billing.StatusOccupied,
		Adults:    1,
		DailyRate: billing.MustMoney("150"),
	}
}

func pay(amount string) billing.Payment {
	return billing.Payment{Amount: billing.MustMoney(amount), Method: billing.MethodPix}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func TestAddReservation(t *testing.T) {
	f := newFixture(t)
	in := twoNightStay()
	in.Status = ""
	in.Consumptions = []billing.Consumption{{Description: "Minibar", Amount: billing.MustMoney("20")}}

	r, err := f.svc.AddReservation(as(employee), in)

	require.NoError(t, err)
	assert.Equal(t, billing.ReservationID("res_1"), r.ID)
	assert.Equal(t, billing.StatusReserved, r.Status)
	assert.Equal(t, "cons_1", r.Consumptions[0].ID)

	entries := f.audit(t, billing.AuditReservationCreated)
	require.Len(t, entries, 1)
	assert.Equal(t, billing.UserID("user_frontdesk"), entries[0].UserID)
	assert.Equal(t, testNow, entries[0].Timestamp)
	assert.Contains(t, entries[0].Details, "Ana Souza")
	f.publisher.AssertCalled(t, "PublishAudit", entries[0])
}

func TestAddReservation_UnknownReferences(t *testing.T) {
	f := newFixture(t)

	r := twoNightStay()
	r.RoomID = "room_999"
	_, err := f.svc.AddReservation(as(admin), r)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	r = twoNightStay()
	r.CompanyID = "comp_999"
	_, err = f.svc.AddReservation(as(admin), r)
	assert.ErrorIs(t, err, billing.ErrNotFound)

	assert.Empty(t, f.audit(t))
}

func TestUpdateReservation(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(admin), twoNightStay())
	require.NoError(t, err)

	t.Run("invoicing without a company is refused", func(t *testing.T) {
		edit := r
		edit.Status = billing.StatusCheckedOutInvoiced
		_, err := f.svc.UpdateReservation(as(admin), edit)
		assert.ErrorIs(t, err, billing.ErrMissingCompany)
	})

	t.Run("any other status is accepted", func(t *testing.T) {
		edit := r
		edit.Status = billing.StatusCancelled
		_, err := f.svc.UpdateReservation(as(admin), edit)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusCancelled, f.status(t, r.ID))
	})

	t.Run("unknown id", func(t *testing.T) {
		edit := r
		edit.ID = "res_999"
		_, err := f.svc.UpdateReservation(as(admin), edit)
		assert.ErrorIs(t, err, billing.ErrNotFound)
	})
}

func TestUpdateReservation_DoesNotReconcile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddCompanyPayment(as(admin), billing.CompanyPayment{
		CompanyID: "comp_acme", Amount: billing.MustMoney("1000"), Date: billing.DateOf(testNow), Method: billing.MethodTransfer,
	})
	require.NoError(t, err)
	r, err := f.svc.AddReservation(as(admin), twoNightStay())
	require.NoError(t, err)

	// GIVEN: an edit that invoices a stay the company has already covered
	r.CompanyID = "comp_acme"
	r.Status = billing.StatusCheckedOutInvoiced
	_, err = f.svc.UpdateReservation(as(admin), r)
	require.NoError(t, err)

	// THEN: the stay stays invoiced until the next reconciliation
	assert.Equal(t, billing.StatusCheckedOutInvoiced, f.status(t, r.ID))

	n, err := f.svc.ReconcileAll(as(admin))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, billing.StatusCheckedOutPaid, f.status(t, r.ID))
}

func TestDeleteReservation(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(admin), twoNightStay())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteReservation(as(admin), r.ID))

	_, err = f.svc.GetReservation(as(admin), r.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteReservation(as(admin), r.ID), billing.ErrNotFound)
	assert.Len(t, f.audit(t, billing.AuditReservationDeleted), 1)
}

// =============================================================================
// CHECKOUT
// =============================================================================

func TestFinalizeCheckout_PaidInFull(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(employee), twoNightStay())
	require.NoError(t, err)

	out, err := f.svc.FinalizeCheckout(as(employee), r.ID, billing.CheckoutRequest{FinalPayment: pay("300")})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusCheckedOut, out.Status)
	assert.Equal(t, billing.StatusCheckedOut, f.status(t, r.ID))

	entries := f.audit(t, billing.AuditCheckoutPaid)
	require.Len(t, entries, 1)
	assert.Equal(t, "Checkout of Ana Souza completed with payment of 300.00.", entries[0].Details)
	assert.Equal(t, 1, f.recorder.checkouts[false])
}

func TestFinalizeCheckout_InsufficientPaymentChangesNothing(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(employee), twoNightStay())
	require.NoError(t, err)

	_, err = f.svc.FinalizeCheckout(as(employee), r.ID, billing.CheckoutRequest{FinalPayment: pay("100")})

	var ipe *billing.InsufficientPaymentError
	require.ErrorAs(t, err, &ipe)
	assert.True(t, ipe.Remaining.Equal(billing.MustMoney("200")))

	stored, err := f.store.GetReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOccupied, stored.Status)
	assert.Empty(t, stored.Payments)
	assert.Empty(t, f.audit(t, billing.AuditCheckoutPaid))
	assert.Equal(t, 1, f.recorder.rejections["insufficient_payment"])
}

func TestFinalizeCheckout_BillToCompany(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(employee), twoNightStay())
	require.NoError(t, err)

	out, err := f.svc.FinalizeCheckout(as(employee), r.ID, billing.CheckoutRequest{
		FinalPayment:  pay("50"),
		BillToCompany: true,
		CompanyID:     "comp_acme",
	})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusCheckedOutInvoiced, out.Status)
	assert.Equal(t, billing.CompanyID("comp_acme"), out.CompanyID)
	entries := f.audit(t, billing.AuditCheckoutInvoiced)
	require.Len(t, entries, 1)
	assert.Equal(t, "Reservation of Ana Souza invoiced to Acme Travel for 250.00.", entries[0].Details)
	assert.Equal(t, 1, f.recorder.checkouts[true])
}

func TestFinalizeCheckout_Rejections(t *testing.T) {
	f := newFixture(t)
	r, err := f.svc.AddReservation(as(employee), twoNightStay())
	require.NoError(t, err)

	_, err = f.svc.FinalizeCheckout(as(employee), r.ID, billing.CheckoutRequest{BillToCompany: true})
	assert.ErrorIs(t, err, billing.ErrMissingCompany)

	_, err = f.svc.FinalizeCheckout(as(employee), r.ID, billing.CheckoutRequest{BillToCompany: true, CompanyID: "comp_999"})
	assert.ErrorIs(t, err, billing.ErrNotFound)

	_, err = f.svc.FinalizeCheckout(as(employee), "res_999", billing.CheckoutRequest{FinalPayment: pay("300")})
	assert.ErrorIs(t, err, billing.ErrNotFound)

	_, err = f.svc.FinalizeCheckout(as(housekeeping), r.ID, billing.CheckoutRequest{FinalPayment: pay("300")})
	assert.ErrorIs(t, err, billing.ErrForbidden)

	assert.Equal(t, billing.StatusOccupied, f.status(t, r.ID))
	assert.Equal(t, 1, f.recorder.rejections["missing_company"])
	assert.Equal(t, 2, f.recorder.rejections["not_found"])
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddReservation(as(employee), twoNightStay())
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.AddCompany(as(admin), billing.Company{Name: "Initech"})
	require.NoError(t, err)

	entries, err := f.svc.AuditTrail(as(admin), billing.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, billing.AuditCompanyCreated, entries[0].Action)
	assert.Equal(t, testNow.Add(time.Hour), entries[0].Timestamp)

	mine, err := f.svc.AuditTrail(as(admin), billing.AuditFilter{UserID: "user_frontdesk"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, billing.AuditReservationCreated, mine[0].Action)

	_, err = f.svc.AuditTrail(as(employee), billing.AuditFilter{})
	assert.ErrorIs(t, err, billing.ErrForbidden)
}
