/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts travel as
  JSON numbers and are converted to decimals at this boundary; dates
  travel as "YYYY-MM-DD".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers only check that the body parses. Business validation happens
  in frontdesk and billing.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/billing"
	"github.com/warp/frontdesk/frontdesk"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type PaymentDTO struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

type ConsumptionDTO struct {
	ID          string  `json:"id,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// FolioDTO is the reservation's ledger statement.
type FolioDTO struct {
	Nights         int     `json:"nights"`
	Accommodation  float64 `json:"accommodation"`
	Consumption    float64 `json:"consumption"`
	GrandTotal     float64 `json:"grand_total"`
	AmountPaid     float64 `json:"amount_paid"`
	BalanceDue     float64 `json:"balance_due"`
	DisplayBalance float64 `json:"display_balance"`
	Settled        bool    `json:"settled"`
}

type ReservationDTO struct {
	ID             string           `json:"id"`
	RoomID         string           `json:"room_id"`
	GuestID        string           `json:"guest_id"`
	CompanyID      string           `json:"company_id,omitempty"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Status         string           `json:"status"`
	Adults         int              `json:"adults"`
	Children       int              `json:"children"`
	DailyRate      float64          `json:"daily_rate"`
	Consumptions   []ConsumptionDTO `json:"consumptions"`
	Payments       []PaymentDTO     `json:"payments"`
	AdvancePayment PaymentDTO       `json:"advance_payment"`
	Observations   string           `json:"observations,omitempty"`
	Folio          FolioDTO         `json:"folio"`
}

// ReservationRequest is the body for creating or replacing a reservation.
type ReservationRequest struct {
	RoomID         string           `json:"room_id"`
	GuestID        string           `json:"guest_id"`
	CompanyID      string           `json:"company_id"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Status         string           `json:"status"`
	Adults         int              `json:"adults"`
	Children       int              `json:"children"`
	DailyRate      float64          `json:"daily_rate"`
	Consumptions   []ConsumptionDTO `json:"consumptions"`
	Payments       []PaymentDTO     `json:"payments"`
	AdvancePayment PaymentDTO       `json:"advance_payment"`
	Observations   string           `json:"observations"`
}

type CheckoutRequest struct {
	FinalPayment  PaymentDTO `json:"final_payment"`
	BillToCompany bool       `json:"bill_to_company"`
	CompanyID     string     `json:"company_id"`
}

func (req ReservationRequest) toReservation(id billing.ReservationID) (billing.Reservation, error) {
	start, err := billing.ParseDate(req.StartDate)
	if err != nil {
		return billing.Reservation{}, err
	}
	end, err := billing.ParseDate(req.EndDate)
	if err != nil {
		return billing.Reservation{}, err
	}

	res := billing.Reservation{
		ID:             id,
		RoomID:         billing.RoomID(req.RoomID),
		GuestID:        billing.GuestID(req.GuestID),
		CompanyID:      billing.CompanyID(req.CompanyID),
		StartDate:      start,
		EndDate:        end,
		Status:         billing.Status(req.Status),
		Adults:         req.Adults,
		Children:       req.Children,
		DailyRate:      billing.NewMoney(req.DailyRate),
		AdvancePayment: req.AdvancePayment.toPayment(),
		Observations:   req.Observations,
	}
	for _, c := range req.Consumptions {
		res.Consumptions = append(res.Consumptions, billing.Consumption{
			ID:          c.ID,
			Description: c.Description,
			Amount:      billing.NewMoney(c.Amount),
		})
	}
	for _, p := range req.Payments {
		res.Payments = append(res.Payments, p.toPayment())
	}
	return res, nil
}

func (p PaymentDTO) toPayment() billing.Payment {
	return billing.Payment{Amount: billing.NewMoney(p.Amount), Method: billing.PaymentMethod(p.Method)}
}

func (req CheckoutRequest) toCheckout() billing.CheckoutRequest {
	return billing.CheckoutRequest{
		FinalPayment:  req.FinalPayment.toPayment(),
		BillToCompany: req.BillToCompany,
		CompanyID:     billing.CompanyID(req.CompanyID),
	}
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	return PaymentDTO{Amount: toFloat(p.Amount), Method: string(p.Method)}
}

func toReservationDTO(r billing.Reservation) ReservationDTO {
	folio := billing.FolioOf(r)
	dto := ReservationDTO{
		ID:             string(r.ID),
		RoomID:         string(r.RoomID),
		GuestID:        string(r.GuestID),
		CompanyID:      string(r.CompanyID),
		StartDate:      r.StartDate.String(),
		EndDate:        r.EndDate.String(),
		Status:         string(r.Status),
		Adults:         r.Adults,
		Children:       r.Children,
		DailyRate:      toFloat(r.DailyRate),
		Consumptions:   make([]ConsumptionDTO, len(r.Consumptions)),
		Payments:       make([]PaymentDTO, len(r.Payments)),
		AdvancePayment: toPaymentDTO(r.AdvancePayment),
		Observations:   r.Observations,
		Folio: FolioDTO{
			Nights:         folio.Nights,
			Accommodation:  toFloat(folio.Accommodation),
			Consumption:    toFloat(folio.Consumption),
			GrandTotal:     toFloat(folio.GrandTotal),
			AmountPaid:     toFloat(folio.AmountPaid),
			BalanceDue:     toFloat(folio.BalanceDue),
			DisplayBalance: toFloat(folio.DisplayBalance()),
			Settled:        folio.Settled(),
		},
	}
	for i, c := range r.Consumptions {
		dto.Consumptions[i] = ConsumptionDTO{ID: c.ID, Description: c.Description, Amount: toFloat(c.Amount)}
	}
	for i, p := range r.Payments {
		dto.Payments[i] = toPaymentDTO(p)
	}
	return dto
}

func toReservationDTOs(rs []billing.Reservation) []ReservationDTO {
	dtos := make([]ReservationDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toReservationDTO(r)
	}
	return dtos
}

// =============================================================================
// COMPANIES
// =============================================================================

type CompanyDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CompanyPaymentDTO struct {
	ID        string  `json:"id"`
	CompanyID string  `json:"company_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Method    string  `json:"method"`
	Notes     string  `json:"notes,omitempty"`
}

// StatementDTO is a company's debt position.
type StatementDTO struct {
	Company      CompanyDTO          `json:"company"`
	TotalDebt    float64             `json:"total_debt"`
	TotalPaid    float64             `json:"total_paid"`
	Balance      float64             `json:"balance"`
	Settled      bool                `json:"settled"`
	Reservations []ReservationDTO    `json:"reservations"`
	Payments     []CompanyPaymentDTO `json:"payments"`
}

func (c CompanyDTO) toCompany() billing.Company {
	return billing.Company{
		ID:    billing.CompanyID(c.ID),
		Name:  c.Name,
		TaxID: c.TaxID,
		Email: c.Email,
		Phone: c.Phone,
	}
}

func toCompanyDTO(c billing.Company) CompanyDTO {
	return CompanyDTO{ID: string(c.ID), Name: c.Name, TaxID: c.TaxID, Email: c.Email, Phone: c.Phone}
}

func (p CompanyPaymentDTO) toCompanyPayment() (billing.CompanyPayment, error) {
	date, err := billing.ParseDate(p.Date)
	if err != nil {
		return billing.CompanyPayment{}, err
	}
	return billing.CompanyPayment{
		ID:        billing.CompanyPaymentID(p.ID),
		CompanyID: billing.CompanyID(p.CompanyID),
		Amount:    billing.NewMoney(p.Amount),
		Date:      date,
		Method:    billing.PaymentMethod(p.Method),
		Notes:     p.Notes,
	}, nil
}

func toCompanyPaymentDTO(p billing.CompanyPayment) CompanyPaymentDTO {
	return CompanyPaymentDTO{
		ID:        string(p.ID),
		CompanyID: string(p.CompanyID),
		Amount:    toFloat(p.Amount),
		Date:      p.Date.String(),
		Method:    string(p.Method),
		Notes:     p.Notes,
	}
}

func toCompanyPaymentDTOs(ps []billing.CompanyPayment) []CompanyPaymentDTO {
	dtos := make([]CompanyPaymentDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toCompanyPaymentDTO(p)
	}
	return dtos
}

func toStatementDTO(s frontdesk.CompanyStatement) StatementDTO {
	return StatementDTO{
		Company:      toCompanyDTO(s.Company),
		TotalDebt:    toFloat(s.Debt.TotalDebt),
		TotalPaid:    toFloat(s.Debt.TotalPaid),
		Balance:      toFloat(s.Debt.Balance()),
		Settled:      s.Debt.Settled,
		Reservations: toReservationDTOs(s.Reservations),
		Payments:     toCompanyPaymentDTOs(s.Payments),
	}
}

// =============================================================================
// ROOMS, GUESTS, USERS
// =============================================================================

type RoomDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	Price    float64 `json:"price"`
	Capacity int     `json:"capacity"`
}

type RoomStatusRequest struct {
	Status string `json:"status"`
}

func (r RoomDTO) toRoom() billing.Room {
	return billing.Room{
		ID:       billing.RoomID(r.ID),
		Name:     r.Name,
		Type:     r.Type,
		Status:   billing.RoomStatus(r.Status),
		Price:    billing.NewMoney(r.Price),
		Capacity: r.Capacity,
	}
}

func toRoomDTO(r billing.Room) RoomDTO {
	return RoomDTO{
		ID:       string(r.ID),
		Name:     r.Name,
		Type:     r.Type,
		Status:   string(r.Status),
		Price:    toFloat(r.Price),
		Capacity: r.Capacity,
	}
}

type GuestDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Document string `json:"document,omitempty"`
}

func (g GuestDTO) toGuest() billing.Guest {
	return billing.Guest{
		ID:       billing.GuestID(g.ID),
		Name:     g.Name,
		Email:    g.Email,
		Phone:    g.Phone,
		Address:  g.Address,
		Document: g.Document,
	}
}

func toGuestDTO(g billing.Guest) GuestDTO {
	return GuestDTO{
		ID:       string(g.ID),
		Name:     g.Name,
		Email:    g.Email,
		Phone:    g.Phone,
		Address:  g.Address,
		Document: g.Document,
	}
}

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func (u UserDTO) toUser() billing.User {
	return billing.User{
		ID:       billing.UserID(u.ID),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     billing.Role(u.Role),
		Active:   u.Active,
	}
}

func toUserDTO(u billing.User) UserDTO {
	return UserDTO{
		ID:       string(u.ID),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		Active:   u.Active,
	}
}

// =============================================================================
// REPORTS
// =============================================================================

type RevenueEntryDTO struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Source     string  `json:"source"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
	ClientType string  `json:"client_type"`
	Reference  string  `json:"reference"`
}

type FinancialSummaryDTO struct {
	Period          string             `json:"period"`
	Since           string             `json:"since,omitempty"`
	TotalRevenue    float64            `json:"total_revenue"`
	RevenueByMethod map[string]float64 `json:"revenue_by_method"`
	RevenueByClient map[string]float64 `json:"revenue_by_client"`
	TotalPending    float64            `json:"total_pending"`
	PendingInvoices []string           `json:"pending_invoices"`
	Entries         []RevenueEntryDTO  `json:"entries"`
}

func toFinancialSummaryDTO(s billing.FinancialSummary) FinancialSummaryDTO {
	dto := FinancialSummaryDTO{
		Period:          string(s.Period),
		Since:           s.Since.String(),
		TotalRevenue:    toFloat(s.TotalRevenue),
		RevenueByMethod: make(map[string]float64, len(s.RevenueByMethod)),
		RevenueByClient: make(map[string]float64, len(s.RevenueByClient)),
		TotalPending:    toFloat(s.TotalPending),
		PendingInvoices: make([]string, len(s.PendingInvoices)),
		Entries:         make([]RevenueEntryDTO, len(s.Entries)),
	}
	for m, v := range s.RevenueByMethod {
		dto.RevenueByMethod[string(m)] = toFloat(v)
	}
	for c, v := range s.RevenueByClient {
		dto.RevenueByClient[string(c)] = toFloat(v)
	}
	for i, id := range s.PendingInvoices {
		dto.PendingInvoices[i] = string(id)
	}
	for i, e := range s.Entries {
		dto.Entries[i] = RevenueEntryDTO{
			ID:         e.ID,
			Date:       e.Date.String(),
			Source:     string(e.Source),
			Amount:     toFloat(e.Amount),
			Method:     string(e.Method),
			ClientType: string(e.ClientType),
			Reference:  e.Reference,
		}
	}
	return dto
}

type AuditEntryDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

func toAuditEntryDTO(e billing.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		UserID:    string(e.UserID),
		Username:  e.Username,
		Action:    string(e.Action),
		Details:   e.Details,
	}
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type ReconcileResponse struct {
	StatusChanges int `json:"status_changes"`
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
