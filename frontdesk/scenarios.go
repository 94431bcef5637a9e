/*
scenarios.go - Demo data sets

PURPOSE:
  Populates the store with a small hotel so the API can be explored
  without entering rooms and guests by hand.

AVAILABLE SCENARIOS:
  front-desk:        Rooms, guests and stays in every stage of the folio
  company-invoicing: Two companies, one settled and one still owing
  empty:             Operators only

HOW SCENARIOS WORK:
 1. Reset the store (audit log included)
 2. Seed the fixed operators (user_admin, user_frontdesk, user_housekeeping)
 3. Save the scenario's records, dated relative to the service clock
 4. Re-settle every company
 5. Append one "Scenario Loaded" audit entry

All of this happens in one transaction.

NOTE:
  Scenarios reset the store. Only use in development/demo environments.
*/
package frontdesk

import (
	"context"
	"fmt"

	"github.com/warp/frontdesk/billing"
)

// Scenario describes a loadable demo data set.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []Scenario{
	{
		ID:          "front-desk",
		Name:        "Front Desk",
		Description: "Rooms, guests and reservations from booking to checkout",
	},
	{
		ID:          "company-invoicing",
		Name:        "Company Invoicing",
		Description: "Invoiced stays with one settled and one partially paid company",
	},
	{
		ID:          "empty",
		Name:        "Empty Hotel",
		Description: "Operators only",
	},
}

// Scenarios lists the available demo data sets.
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Operators present in every scenario.
var defaultUsers = []billing.User{
	{ID: "user_admin", Username: "admin", Name: "Administrator", Role: billing.RoleAdmin, Active: true},
	{ID: "user_frontdesk", Username: "frontdesk", Name: "Front Desk", Role: billing.RoleEmployee, Active: true},
	{ID: "user_housekeeping", Username: "housekeeping", Name: "Housekeeping", Role: billing.RoleHousekeeping, Active: true},
}

// CurrentScenario returns the id of the last loaded scenario, or "".
func (s *Service) CurrentScenario() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenario
}

// LoadScenario replaces everything in the store with a demo data set.
func (s *Service) LoadScenario(ctx context.Context, id string) error {
	actor, err := authorize(ctx, PermScenarios)
	if err != nil {
		return err
	}

	var load func(ctx context.Context, u *unit) error
	switch id {
	case "front-desk":
		load = s.loadFrontDeskScenario
	case "company-invoicing":
		load = s.loadCompanyInvoicingScenario
	case "empty":
		load = func(context.Context, *unit) error { return nil }
	default:
		return &billing.ValidationError{Field: "scenario_id", Reason: fmt.Sprintf("unknown scenario %q", id)}
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := u.Reset(ctx); err != nil {
			return err
		}
		for _, user := range defaultUsers {
			if err := u.SaveUser(ctx, user); err != nil {
				return err
			}
		}
		if err := load(ctx, u); err != nil {
			return err
		}
		companies, err := u.ListCompanies(ctx)
		if err != nil {
			return err
		}
		for _, c := range companies {
			if _, err := s.reconcileCompany(ctx, u, c.ID); err != nil {
				return err
			}
		}
		return u.audit(ctx, billing.AuditScenarioLoaded, fmt.Sprintf("Scenario %s loaded.", id))
	})
	if err != nil {
		return err
	}

	// mutate has released the lock by now.
	s.mu.Lock()
	s.scenario = id
	s.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (s *Service) loadFrontDeskScenario(ctx context.Context, u *unit) error {
	today := billing.DateOf(s.clock.Now())

	rooms := []billing.Room{
		{ID: "room_101", Name: "101", Type: "Standard", Status: billing.RoomClean, Price: billing.MustMoney("150"), Capacity: 2},
		{ID: "room_102", Name: "102", Type: "Standard", Status: billing.RoomDirty, Price: billing.MustMoney("150"), Capacity: 2},
		{ID: "room_201", Name: "201", Type: "Deluxe", Status: billing.RoomClean, Price: billing.MustMoney("250"), Capacity: 3},
		{ID: "room_301", Name: "301", Type: "Suite", Status: billing.RoomMaintenance, Price: billing.MustMoney("400"), Capacity: 4},
	}
	guests := []billing.Guest{
		{ID: "guest_ana", Name: "Ana Souza", Email: "ana@example.com", Phone: "+55 11 90000-0001", Document: "123.456.789-00"},
		{ID: "guest_bruno", Name: "Bruno Lima", Email: "bruno@example.com", Phone: "+55 11 90000-0002"},
		{ID: "guest_carla", Name: "Carla Mendes", Email: "carla@example.com"},
		{ID: "guest_diego", Name: "Diego Rocha", Email: "diego@example.com"},
	}
	companies := []billing.Company{
		{ID: "comp_acme", Name: "Acme Travel", TaxID: "12.345.678/0001-90", Email: "billing@acme.example"},
		{ID: "comp_globex", Name: "Globex Logistics", TaxID: "98.765.432/0001-10", Email: "ap@globex.example"},
	}
	reservations := []billing.Reservation{
		{
			// In house with an advance and a minibar charge.
			ID: "res_ana", RoomID: "room_101", GuestID: "guest_ana",
			StartDate: today.AddDays(-2), EndDate: today.AddDays(1),
			Status: billing.StatusOccupied, Adults: 2, DailyRate: billing.MustMoney("150"),
			AdvancePayment: billing.Payment{Amount: billing.MustMoney("150"), Method: billing.MethodPix},
			Consumptions: []billing.Consumption{
				{ID: "cons_ana_1", Description: "Minibar", Amount: billing.MustMoney("35")},
			},
		},
		{
			ID: "res_bruno", RoomID: "room_201", GuestID: "guest_bruno",
			StartDate: today.AddDays(3), EndDate: today.AddDays(5),
			Status: billing.StatusConfirmedAdvance, Adults: 1, DailyRate: billing.MustMoney("250"),
			AdvancePayment: billing.Payment{Amount: billing.MustMoney("100"), Method: billing.MethodCredit},
		},
		{
			ID: "res_carla", RoomID: "room_102", GuestID: "guest_carla",
			StartDate: today.AddDays(-5), EndDate: today.AddDays(-2),
			Status: billing.StatusCheckedOut, Adults: 1, DailyRate: billing.MustMoney("150"),
			Payments: []billing.Payment{{Amount: billing.MustMoney("450"), Method: billing.MethodDebit}},
		},
		{
			ID: "res_diego", RoomID: "room_201", GuestID: "guest_diego", CompanyID: "comp_acme",
			StartDate: today.AddDays(-10), EndDate: today.AddDays(-8),
			Status: billing.StatusCheckedOutInvoiced, Adults: 1, DailyRate: billing.MustMoney("250"),
		},
		{
			ID: "res_ana_next", RoomID: "room_102", GuestID: "guest_ana",
			StartDate: today.AddDays(7), EndDate: today.AddDays(9),
			Status: billing.StatusReserved, Adults: 2, Children: 1, DailyRate: billing.MustMoney("150"),
			Observations: "Late arrival",
		},
	}
	return saveAll(ctx, u, rooms, guests, companies, reservations, nil)
}

func (s *Service) loadCompanyInvoicingScenario(ctx context.Context, u *unit) error {
	today := billing.DateOf(s.clock.Now())

	rooms := []billing.Room{
		{ID: "room_101", Name: "101", Type: "Standard", Status: billing.RoomClean, Price: billing.MustMoney("150"), Capacity: 2},
		{ID: "room_201", Name: "201", Type: "Deluxe", Status: billing.RoomClean, Price: billing.MustMoney("250"), Capacity: 3},
	}
	guests := []billing.Guest{
		{ID: "guest_erika", Name: "Erika Santos"},
		{ID: "guest_felipe", Name: "Felipe Costa"},
		{ID: "guest_gabriela", Name: "Gabriela Alves"},
	}
	companies := []billing.Company{
		{ID: "comp_acme", Name: "Acme Travel", TaxID: "12.345.678/0001-90"},
		{ID: "comp_globex", Name: "Globex Logistics", TaxID: "98.765.432/0001-10"},
	}
	reservations := []billing.Reservation{
		{
			ID: "res_erika", RoomID: "room_101", GuestID: "guest_erika", CompanyID: "comp_acme",
			StartDate: today.AddDays(-12), EndDate: today.AddDays(-10),
			Status: billing.StatusCheckedOutInvoiced, Adults: 1, DailyRate: billing.MustMoney("150"),
		},
		{
			ID: "res_felipe", RoomID: "room_201", GuestID: "guest_felipe", CompanyID: "comp_acme",
			StartDate: today.AddDays(-6), EndDate: today.AddDays(-4),
			Status: billing.StatusCheckedOutInvoiced, Adults: 1, DailyRate: billing.MustMoney("250"),
			Consumptions: []billing.Consumption{
				{ID: "cons_felipe_1", Description: "Laundry", Amount: billing.MustMoney("40")},
			},
		},
		{
			ID: "res_gabriela", RoomID: "room_101", GuestID: "guest_gabriela", CompanyID: "comp_globex",
			StartDate: today.AddDays(-4), EndDate: today.AddDays(-3),
			Status: billing.StatusCheckedOutInvoiced, Adults: 1, DailyRate: billing.MustMoney("200"),
		},
	}
	// Acme owes 840 and has paid 300. Globex owes 200 and has paid it.
	payments := []billing.CompanyPayment{
		{ID: "cp_acme_1", CompanyID: "comp_acme", Amount: billing.MustMoney("300"), Date: today.AddDays(-3), Method: billing.MethodTransfer, Notes: "Partial"},
		{ID: "cp_globex_1", CompanyID: "comp_globex", Amount: billing.MustMoney("200"), Date: today.AddDays(-1), Method: billing.MethodPix},
	}
	return saveAll(ctx, u, rooms, guests, companies, reservations, payments)
}

func saveAll(
	ctx context.Context,
	store billing.Store,
	rooms []billing.Room,
	guests []billing.Guest,
	companies []billing.Company,
	reservations []billing.Reservation,
	payments []billing.CompanyPayment,
) error {
	for _, r := range rooms {
		if err := store.SaveRoom(ctx, r); err != nil {
			return err
		}
	}
	for _, g := range guests {
		if err := store.SaveGuest(ctx, g); err != nil {
			return err
		}
	}
	for _, c := range companies {
		if err := store.SaveCompany(ctx, c); err != nil {
			return err
		}
	}
	for _, r := range reservations {
		if err := billing.ValidateReservation(r); err != nil {
			return fmt.Errorf("scenario reservation %s: %w", r.ID, err)
		}
		if err := store.SaveReservation(ctx, r); err != nil {
			return err
		}
	}
	for _, p := range payments {
		if err := store.SaveCompanyPayment(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
