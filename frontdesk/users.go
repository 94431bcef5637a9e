package frontdesk

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/frontdesk/billing"
)

// ResolveActor loads a user and turns it into an Actor. It performs no
// permission check of its own since it is how a request gets an actor in
// the first place.
func (s *Service) ResolveActor(ctx context.Context, id billing.UserID) (Actor, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return Actor{}, err
	}
	return NewActor(u)
}

func (s *Service) ListUsers(ctx context.Context) ([]billing.User, error) {
	if _, err := authorize(ctx, PermUsers); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// AddUser creates an active user. Usernames are unique.
func (s *Service) AddUser(ctx context.Context, user billing.User) (billing.User, error) {
	actor, err := authorize(ctx, PermUsers)
	if err != nil {
		return billing.User{}, err
	}
	if err := validateUser(user); err != nil {
		return billing.User{}, err
	}
	user.ID = billing.UserID(s.ids.NewID(billing.PrefixUser))
	user.Active = true

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := checkUsernameFree(ctx, u, user); err != nil {
			return err
		}
		if err := u.SaveUser(ctx, user); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditUserCreated,
			fmt.Sprintf("User %s added with role %s.", user.Username, user.Role))
	})
	if err != nil {
		return billing.User{}, err
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, user billing.User) (billing.User, error) {
	actor, err := authorize(ctx, PermUsers)
	if err != nil {
		return billing.User{}, err
	}
	if err := validateUser(user); err != nil {
		return billing.User{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if _, err := u.GetUser(ctx, user.ID); err != nil {
			return err
		}
		if err := checkUsernameFree(ctx, u, user); err != nil {
			return err
		}
		if err := u.SaveUser(ctx, user); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditUserUpdated, fmt.Sprintf("User %s updated.", user.Username))
	})
	if err != nil {
		return billing.User{}, err
	}
	return user, nil
}

// ToggleUserStatus flips a user between active and inactive. Operators
// cannot deactivate themselves.
func (s *Service) ToggleUserStatus(ctx context.Context, id billing.UserID) (billing.User, error) {
	actor, err := authorize(ctx, PermUsers)
	if err != nil {
		return billing.User{}, err
	}
	if id == actor.ID {
		return billing.User{}, &billing.ValidationError{Field: "id", Reason: "cannot change your own status"}
	}

	var user billing.User
	err = s.mutate(ctx, actor, func(u *unit) error {
		var err error
		if user, err = u.GetUser(ctx, id); err != nil {
			return err
		}
		user.Active = !user.Active
		if err := u.SaveUser(ctx, user); err != nil {
			return err
		}
		state := "deactivated"
		if user.Active {
			state = "activated"
		}
		return u.audit(ctx, billing.AuditUserStatus, fmt.Sprintf("User %s %s.", user.Username, state))
	})
	if err != nil {
		return billing.User{}, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id billing.UserID) error {
	actor, err := authorize(ctx, PermUsers)
	if err != nil {
		return err
	}
	if id == actor.ID {
		return &billing.ValidationError{Field: "id", Reason: "cannot delete yourself"}
	}
	return s.mutate(ctx, actor, func(u *unit) error {
		user, err := u.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if err := u.DeleteUser(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditUserDeleted, fmt.Sprintf("User %s deleted.", user.Username))
	})
}

func validateUser(u billing.User) error {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return &billing.ValidationError{Field: "username", Reason: "required"}
	case !u.Role.Valid():
		return &billing.ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", u.Role)}
	}
	return nil
}

func checkUsernameFree(ctx context.Context, store billing.Store, user billing.User) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, other := range users {
		if other.ID != user.ID && strings.EqualFold(other.Username, user.Username) {
			return &billing.ValidationError{Field: "username", Reason: fmt.Sprintf("%q is already taken", user.Username)}
		}
	}
	return nil
}
