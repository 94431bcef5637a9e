package frontdesk

import (
	"context"

	"github.com/warp/frontdesk/billing"
)

// =============================================================================
// ACTOR - The operator performing an action
// =============================================================================

// Actor is an authenticated, active front-desk operator.
type Actor struct {
	ID       billing.UserID
	Username string
	Role     billing.Role
}

// SystemActor performs background work such as the reconciliation sweep.
var SystemActor = Actor{ID: "system", Username: "system", Role: billing.RoleAdmin}

// NewActor turns a stored user into an Actor. Inactive users cannot act.
func NewActor(u billing.User) (Actor, error) {
	if !u.Active {
		return Actor{}, &billing.ForbiddenError{Role: u.Role, Action: "act while deactivated"}
	}
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

type actorKey struct{}

// WithActor attaches the acting operator to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the operator attached to ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// =============================================================================
// PERMISSIONS
// =============================================================================

// Permission is phrased so it reads naturally in "role X may not <permission>".
type Permission string

const (
	PermReservations Permission = "manage reservations"
	PermCompanies    Permission = "manage companies"
	PermGuests       Permission = "manage guests"
	PermRooms        Permission = "manage rooms"
	PermRoomStatus   Permission = "update room status"
	PermViewRooms    Permission = "view rooms"
	PermFinance      Permission = "view financial reports"
	PermUsers        Permission = "manage users"
	PermAudit        Permission = "view the audit trail"
	PermScenarios    Permission = "load demo scenarios"
)

var rolePermissions = map[billing.Role]map[Permission]bool{
	billing.RoleAdmin: {
		PermReservations: true, PermCompanies: true, PermGuests: true,
		PermRooms: true, PermRoomStatus: true, PermViewRooms: true,
		PermFinance: true, PermUsers: true, PermAudit: true, PermScenarios: true,
	},
	billing.RoleEmployee: {
		PermReservations: true, PermCompanies: true, PermGuests: true,
		PermRooms: true, PermRoomStatus: true, PermViewRooms: true,
	},
	billing.RoleHousekeeping: {
		PermRoomStatus: true, PermViewRooms: true,
	},
}

// Can reports whether the actor's role grants p.
func (a Actor) Can(p Permission) bool {
	return rolePermissions[a.Role][p]
}

func authorize(ctx context.Context, p Permission) (Actor, error) {
	a, ok := ActorFrom(ctx)
	if !ok {
		return Actor{}, &billing.ForbiddenError{Action: string(p)}
	}
	if !a.Can(p) {
		return Actor{}, &billing.ForbiddenError{Role: a.Role, Action: string(p)}
	}
	return a, nil
}
