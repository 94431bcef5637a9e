package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/frontdesk"
	"go.uber.org/zap"
)

// UserHeader carries the acting operator's id.
const UserHeader = "X-User-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *frontdesk.Service

	logger      *zap.Logger
	defaultUser billing.UserID
}

// NewHandler creates a handler. Requests without X-User-ID act as
// defaultUser; an empty defaultUser makes the header mandatory.
func NewHandler(svc *frontdesk.Service, logger *zap.Logger, defaultUser string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:     svc,
		logger:      logger.Named("api"),
		defaultUser: billing.UserID(defaultUser),
	}
}

// ResolveActor attaches the acting operator to the request context.
func (h *Handler) ResolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := billing.UserID(strings.TrimSpace(r.Header.Get(UserHeader)))
		if id == "" {
			id = h.defaultUser
		}
		if id == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+UserHeader+" header", nil)
			return
		}

		actor, err := h.Service.ResolveActor(r.Context(), id)
		switch {
		case billing.IsNotFound(err):
			writeError(w, http.StatusUnauthorized, "Unknown user", err)
			return
		case err != nil:
			h.fail(w, r, "Failed to resolve user", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(frontdesk.WithActor(r.Context(), actor)))
	})
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// ListReservations returns reservations, optionally filtered by company,
// room, guest and status (repeatable).
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := billing.ReservationFilter{
		CompanyID: billing.CompanyID(q.Get("company_id")),
		RoomID:    billing.RoomID(q.Get("room_id")),
		GuestID:   billing.GuestID(q.Get("guest_id")),
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, billing.Status(s))
	}

	reservations, err := h.Service.ListReservations(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "Failed to list reservations", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetReservation(r.Context(), billing.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := req.toReservation("")
	if err != nil {
		h.fail(w, r, "Invalid reservation", err)
		return
	}
	res, err = h.Service.AddReservation(r.Context(), res)
	if err != nil {
		h.fail(w, r, "Failed to create reservation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := req.toReservation(billing.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Invalid reservation", err)
		return
	}
	out, err := h.Service.Dispatch(r.Context(), billing.EditReservationAction{Reservation: res})
	if err != nil {
		h.fail(w, r, "Failed to update reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*out.Reservation))
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteReservation(r.Context(), billing.ReservationID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout finalizes a stay, paid by the guest or invoiced to a company.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Service.Dispatch(r.Context(), billing.CheckoutAction{
		ReservationID: billing.ReservationID(chi.URLParam(r, "id")),
		Request:       req.toCheckout(),
	})
	if err != nil {
		h.fail(w, r, "Checkout refused", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*out.Reservation))
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.ListCompanies(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list companies", err)
		return
	}
	dtos := make([]CompanyDTO, len(companies))
	for i, c := range companies {
		dtos[i] = toCompanyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCompany(r.Context(), billing.CompanyID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(c))
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyDTO
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Service.AddCompany(r.Context(), req.toCompany())
	if err != nil {
		h.fail(w, r, "Failed to create company", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyDTO(c))
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyDTO
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	c, err := h.Service.UpdateCompany(r.Context(), req.toCompany())
	if err != nil {
		h.fail(w, r, "Failed to update company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(c))
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCompany(r.Context(), billing.CompanyID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete company", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatement returns what a company owes and has paid.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.CompanyStatement(r.Context(), billing.CompanyID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to build statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

func (h *Handler) ListCompanyPayments(w http.ResponseWriter, r *http.Request) {
	id := billing.CompanyID(chi.URLParam(r, "id"))
	if _, err := h.Service.GetCompany(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to list payments", err)
		return
	}
	payments, err := h.Service.ListCompanyPayments(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyPaymentDTOs(payments))
}

// CreateCompanyPayment records a payment against the company in the path.
func (h *Handler) CreateCompanyPayment(w http.ResponseWriter, r *http.Request) {
	var req CompanyPaymentDTO
	if !decode(w, r, &req) {
		return
	}
	req.CompanyID = chi.URLParam(r, "id")
	p, err := req.toCompanyPayment()
	if err != nil {
		h.fail(w, r, "Invalid payment", err)
		return
	}
	out, err := h.Service.Dispatch(r.Context(), billing.RecordCompanyPaymentAction{Payment: p})
	if err != nil {
		h.fail(w, r, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyPaymentDTO(*out.Payment))
}

func (h *Handler) UpdateCompanyPayment(w http.ResponseWriter, r *http.Request) {
	var req CompanyPaymentDTO
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	p, err := req.toCompanyPayment()
	if err != nil {
		h.fail(w, r, "Invalid payment", err)
		return
	}
	out, err := h.Service.Dispatch(r.Context(), billing.EditCompanyPaymentAction{Payment: p})
	if err != nil {
		h.fail(w, r, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyPaymentDTO(*out.Payment))
}

func (h *Handler) DeleteCompanyPayment(w http.ResponseWriter, r *http.Request) {
	action := billing.RemoveCompanyPaymentAction{PaymentID: billing.CompanyPaymentID(chi.URLParam(r, "id"))}
	if _, err := h.Service.Dispatch(r.Context(), action); err != nil {
		h.fail(w, r, "Failed to delete payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile re-settles every company.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.ReconcileAll(r.Context())
	if err != nil {
		h.fail(w, r, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{StatusChanges: n})
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Service.ListRooms(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list rooms", err)
		return
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, room := range rooms {
		dtos[i] = toRoomDTO(room)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Service.GetRoom(r.Context(), billing.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get room", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomDTO
	if !decode(w, r, &req) {
		return
	}
	room, err := h.Service.AddRoom(r.Context(), req.toRoom())
	if err != nil {
		h.fail(w, r, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomDTO
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	room, err := h.Service.UpdateRoom(r.Context(), req.toRoom())
	if err != nil {
		h.fail(w, r, "Failed to update room", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

func (h *Handler) UpdateRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req RoomStatusRequest
	if !decode(w, r, &req) {
		return
	}
	room, err := h.Service.UpdateRoomStatus(r.Context(), billing.RoomID(chi.URLParam(r, "id")), billing.RoomStatus(req.Status))
	if err != nil {
		h.fail(w, r, "Failed to update room status", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRoom(r.Context(), billing.RoomID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete room", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GUEST HANDLERS
// =============================================================================

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.Service.ListGuests(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list guests", err)
		return
	}
	dtos := make([]GuestDTO, len(guests))
	for i, g := range guests {
		dtos[i] = toGuestDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.GetGuest(r.Context(), billing.GuestID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get guest", err)
		return
	}
	writeJSON(w, http.StatusOK, toGuestDTO(g))
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req GuestDTO
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Service.AddGuest(r.Context(), req.toGuest())
	if err != nil {
		h.fail(w, r, "Failed to create guest", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGuestDTO(g))
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	var req GuestDTO
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	g, err := h.Service.UpdateGuest(r.Context(), req.toGuest())
	if err != nil {
		h.fail(w, r, "Failed to update guest", err)
		return
	}
	writeJSON(w, http.StatusOK, toGuestDTO(g))
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteGuest(r.Context(), billing.GuestID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete guest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserDTO
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Service.AddUser(r.Context(), req.toUser())
	if err != nil {
		h.fail(w, r, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserDTO
	if !decode(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	u, err := h.Service.UpdateUser(r.Context(), req.toUser())
	if err != nil {
		h.fail(w, r, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.ToggleUserStatus(r.Context(), billing.UserID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to change user status", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteUser(r.Context(), billing.UserID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORTS
// =============================================================================

// FinancialSummary reports revenue for ?period=all|this_month|last_7_days.
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.FinancialSummary(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.fail(w, r, "Failed to build financial summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toFinancialSummaryDTO(summary))
}

// AuditTrail lists audit entries, newest first. Query parameters:
// user_id, action (repeatable), from and to (YYYY-MM-DD, inclusive),
// search and limit.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := billing.AuditFilter{
		UserID: billing.UserID(q.Get("user_id")),
		Search: q.Get("search"),
	}
	for _, a := range q["action"] {
		filter.Actions = append(filter.Actions, billing.AuditAction(a))
	}
	if s := q.Get("from"); s != "" {
		d, err := billing.ParseDate(s)
		if err != nil {
			h.fail(w, r, "Invalid from date", err)
			return
		}
		from := d.Time
		filter.From = &from
	}
	if s := q.Get("to"); s != "" {
		d, err := billing.ParseDate(s)
		if err != nil {
			h.fail(w, r, "Invalid to date", err)
			return
		}
		to := d.Time.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	entries, err := h.Service.AuditTrail(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "Failed to read audit trail", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, frontdesk.Scenarios())
}

// GetCurrentScenario returns the loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	id := h.Service.CurrentScenario()
	for _, s := range frontdesk.Scenarios() {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.LoadScenario(r.Context(), req.ScenarioID); err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case billing.IsForbidden(err):
		return http.StatusForbidden
	case billing.IsNotFound(err):
		return http.StatusNotFound
	case billing.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, billing.ErrInsufficientPayment), errors.Is(err, billing.ErrMissingCompany):
		return http.StatusUnprocessableEntity
	case billing.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Server errors are logged; client
// errors are not.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, message, err)
}
