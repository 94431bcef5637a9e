/*
handlers_test.go - HTTP tests for the front-desk API

Tests for:
- Reservation folio and checkout (paid, refused, invoiced)
- Company payments settling invoiced stays
- Error status mapping (404, 409, 422, 401, 403)
- Role checks per operator
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/billing/store"
	"github.com/warp/frontdesk/clock"
	"github.com/warp/frontdesk/frontdesk"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := frontdesk.NewService(store.NewMemory(),
		frontdesk.WithIDGenerator(billing.NewSequenceGenerator()),
		frontdesk.WithClock(clock.NewFakeClock(testNow)),
		frontdesk.WithLogger(logger),
	)
	ctx := frontdesk.WithActor(context.Background(), frontdesk.SystemActor)
	require.NoError(t, svc.LoadScenario(ctx, "front-desk"))

	return NewRouter(NewHandler(svc, logger, "user_admin"), RouterOptions{})
}

func do(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetReservation_IncludesFolio(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/reservations/res_ana", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 3 nights at 150, minibar 35, advance 150
	res := decodeBody[ReservationDTO](t, rec)
	assert.Equal(t, 3, res.Folio.Nights)
	assert.Equal(t, 450.0, res.Folio.Accommodation)
	assert.Equal(t, 35.0, res.Folio.Consumption)
	assert.Equal(t, 485.0, res.Folio.GrandTotal)
	assert.Equal(t, 150.0, res.Folio.AmountPaid)
	assert.Equal(t, 335.0, res.Folio.BalanceDue)
	assert.False(t, res.Folio.Settled)
}

func TestGetReservation_NotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/reservations/res_missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	t.Run("short payment is refused", func(t *testing.T) {
		router := newTestRouter(t)

		rec := do(t, router, http.MethodPost, "/api/reservations/res_ana/checkout", "", CheckoutRequest{
			FinalPayment: PaymentDTO{Amount: 300, Method: "pix"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody[ErrorResponse](t, rec)
		assert.Equal(t, "Checkout refused", body.Error)

		// Reservation is untouched
		res := decodeBody[ReservationDTO](t, do(t, router, http.MethodGet, "/api/reservations/res_ana", "", nil))
		assert.Equal(t, "occupied", res.Status)
		assert.Empty(t, res.Payments)
	})

	t.Run("full payment checks out", func(t *testing.T) {
		router := newTestRouter(t)

		rec := do(t, router, http.MethodPost, "/api/reservations/res_ana/checkout", "", CheckoutRequest{
			FinalPayment: PaymentDTO{Amount: 335, Method: "credit"},
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decodeBody[ReservationDTO](t, rec)
		assert.Equal(t, "checked-out", res.Status)
		assert.True(t, res.Folio.Settled)
		assert.Len(t, res.Payments, 1)
	})

	t.Run("bill to company without company is refused", func(t *testing.T) {
		router := newTestRouter(t)

		rec := do(t, router, http.MethodPost, "/api/reservations/res_ana/checkout", "", CheckoutRequest{
			BillToCompany: true,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("bill to company invoices the balance", func(t *testing.T) {
		router := newTestRouter(t)

		rec := do(t, router, http.MethodPost, "/api/reservations/res_ana/checkout", "", CheckoutRequest{
			BillToCompany: true,
			CompanyID:     "comp_globex",
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decodeBody[ReservationDTO](t, rec)
		assert.Equal(t, "checked-out_invoiced", res.Status)
		assert.Equal(t, "comp_globex", res.CompanyID)
		assert.Equal(t, 335.0, res.Folio.BalanceDue)
	})
}

func TestCompanyPayment_SettlesInvoicedStay(t *testing.T) {
	router := newTestRouter(t)

	// GIVEN: Acme owes 500 for Diego's stay
	st := decodeBody[StatementDTO](t, do(t, router, http.MethodGet, "/api/companies/comp_acme/statement", "", nil))
	require.Equal(t, 500.0, st.TotalDebt)
	require.False(t, st.Settled)

	// WHEN: Acme pays 500
	rec := do(t, router, http.MethodPost, "/api/companies/comp_acme/payments", "", CompanyPaymentDTO{
		Amount: 500, Date: "2025-03-15", Method: "transfer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decodeBody[CompanyPaymentDTO](t, rec)

	// THEN: the stay is paid
	res := decodeBody[ReservationDTO](t, do(t, router, http.MethodGet, "/api/reservations/res_diego", "", nil))
	assert.Equal(t, "checked-out_paid", res.Status)

	// WHEN: the payment is removed
	rec = do(t, router, http.MethodDelete, "/api/company-payments/"+payment.ID, "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// THEN: the stay is invoiced again
	res = decodeBody[ReservationDTO](t, do(t, router, http.MethodGet, "/api/reservations/res_diego", "", nil))
	assert.Equal(t, "checked-out_invoiced", res.Status)
}

func TestCompanyPayment_InvalidAmount(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/companies/comp_acme/payments", "", CompanyPaymentDTO{
		Amount: 0, Date: "2025-03-15", Method: "pix",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCompany_WithOpenInvoiceConflicts(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodDelete, "/api/companies/comp_acme", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/companies/comp_globex", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteRoom_Referenced(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodDelete, "/api/rooms/room_101", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/rooms/room_301", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRoles(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   any
		want   int
	}{
		{"housekeeping cannot list reservations", "user_housekeeping", http.MethodGet, "/api/reservations", nil, http.StatusForbidden},
		{"housekeeping views rooms", "user_housekeeping", http.MethodGet, "/api/rooms", nil, http.StatusOK},
		{"housekeeping sets room status", "user_housekeeping", http.MethodPut, "/api/rooms/room_102/status", RoomStatusRequest{Status: "clean"}, http.StatusOK},
		{"employee cannot read finance", "user_frontdesk", http.MethodGet, "/api/finance/summary", nil, http.StatusForbidden},
		{"employee cannot read audit", "user_frontdesk", http.MethodGet, "/api/audit", nil, http.StatusForbidden},
		{"employee lists reservations", "user_frontdesk", http.MethodGet, "/api/reservations", nil, http.StatusOK},
		{"admin reads finance", "user_admin", http.MethodGet, "/api/finance/summary?period=all", nil, http.StatusOK},
		{"unknown user", "user_ghost", http.MethodGet, "/api/rooms", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestToggleUser_DeactivatedUserIsForbidden(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/users/user_frontdesk/toggle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decodeBody[UserDTO](t, rec).Active)

	rec = do(t, router, http.MethodGet, "/api/reservations", "user_frontdesk", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFinancialSummary(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/finance/summary?period=all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decodeBody[FinancialSummaryDTO](t, rec)
	// Advances 150 (Ana) + 100 (Bruno), Carla's checkout 450
	assert.Equal(t, 700.0, summary.TotalRevenue)
	assert.Equal(t, 500.0, summary.TotalPending)
	assert.Equal(t, []string{"res_diego"}, summary.PendingInvoices)

	rec = do(t, router, http.MethodGet, "/api/finance/summary?period=forever", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditTrail_FiltersByAction(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/reservations/res_ana/checkout", "user_frontdesk", CheckoutRequest{
		FinalPayment: PaymentDTO{Amount: 335, Method: "pix"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	q := url.Values{"action": {string(billing.AuditCheckoutPaid)}}
	rec = do(t, router, http.MethodGet, "/api/audit?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entries := decodeBody[[]AuditEntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "user_frontdesk", entries[0].UserID)
	assert.Contains(t, entries[0].Details, "Ana Souza")
}

func TestCreateReservation(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/reservations", "", ReservationRequest{
		RoomID: "room_201", GuestID: "guest_carla",
		StartDate: "2025-04-01", EndDate: "2025-04-03",
		Adults: 2, DailyRate: 250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[ReservationDTO](t, rec)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "reserved", res.Status)
	assert.Equal(t, 500.0, res.Folio.GrandTotal)

	// Bad date
	rec = do(t, router, http.MethodPost, "/api/reservations", "", ReservationRequest{
		RoomID: "room_201", GuestID: "guest_carla", StartDate: "04/01/2025", EndDate: "2025-04-03",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown room
	rec = do(t, router, http.MethodPost, "/api/reservations", "", ReservationRequest{
		RoomID: "room_999", GuestID: "guest_carla", StartDate: "2025-04-01", EndDate: "2025-04-03",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarios(t *testing.T) {
	router := newTestRouter(t)

	current := decodeBody[frontdesk.Scenario](t, do(t, router, http.MethodGet, "/api/scenarios/current", "", nil))
	assert.Equal(t, "front-desk", current.ID)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "empty"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rooms := decodeBody[[]RoomDTO](t, do(t, router, http.MethodGet, "/api/rooms", "", nil))
	assert.Empty(t, rooms)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
