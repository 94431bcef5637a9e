package frontdesk

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/frontdesk/billing"
)

// =============================================================================
// ROOMS
// =============================================================================

func (s *Service) GetRoom(ctx context.Context, id billing.RoomID) (billing.Room, error) {
	if _, err := authorize(ctx, PermViewRooms); err != nil {
		return billing.Room{}, err
	}
	return s.store.GetRoom(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]billing.Room, error) {
	if _, err := authorize(ctx, PermViewRooms); err != nil {
		return nil, err
	}
	return s.store.ListRooms(ctx)
}

// AddRoom stores a new room. A missing housekeeping status defaults to clean.
func (s *Service) AddRoom(ctx context.Context, r billing.Room) (billing.Room, error) {
	actor, err := authorize(ctx, PermRooms)
	if err != nil {
		return billing.Room{}, err
	}
	if r.Status == "" {
		r.Status = billing.RoomClean
	}
	if err := validateRoom(r); err != nil {
		return billing.Room{}, err
	}
	r.ID = billing.RoomID(s.ids.NewID(billing.PrefixRoom))

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := u.SaveRoom(ctx, r); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditRoomCreated, fmt.Sprintf("Room %s added.", r.Name))
	})
	if err != nil {
		return billing.Room{}, err
	}
	return r, nil
}

func (s *Service) UpdateRoom(ctx context.Context, r billing.Room) (billing.Room, error) {
	actor, err := authorize(ctx, PermRooms)
	if err != nil {
		return billing.Room{}, err
	}
	if err := validateRoom(r); err != nil {
		return billing.Room{}, err
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if _, err := u.GetRoom(ctx, r.ID); err != nil {
			return err
		}
		if err := u.SaveRoom(ctx, r); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditRoomUpdated, fmt.Sprintf("Room %s updated.", r.Name))
	})
	if err != nil {
		return billing.Room{}, err
	}
	return r, nil
}

// UpdateRoomStatus sets a room's housekeeping status. Setting the status
// a room already has writes nothing.
func (s *Service) UpdateRoomStatus(ctx context.Context, id billing.RoomID, status billing.RoomStatus) (billing.Room, error) {
	actor, err := authorize(ctx, PermRoomStatus)
	if err != nil {
		return billing.Room{}, err
	}
	if !status.Valid() {
		return billing.Room{}, &billing.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown room status %q", status)}
	}

	var room billing.Room
	err = s.mutate(ctx, actor, func(u *unit) error {
		var err error
		if room, err = u.GetRoom(ctx, id); err != nil {
			return err
		}
		if room.Status == status {
			return nil
		}
		prev := room.Status
		room.Status = status
		if err := u.SaveRoom(ctx, room); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditRoomUpdated,
			fmt.Sprintf("Room %s status changed from %s to %s.", room.Name, prev, status))
	})
	if err != nil {
		return billing.Room{}, err
	}
	return room, nil
}

// DeleteRoom removes a room no reservation refers to.
func (s *Service) DeleteRoom(ctx context.Context, id billing.RoomID) error {
	actor, err := authorize(ctx, PermRooms)
	if err != nil {
		return err
	}
	return s.mutate(ctx, actor, func(u *unit) error {
		room, err := u.GetRoom(ctx, id)
		if err != nil {
			return err
		}
		refs, err := u.ListReservations(ctx, billing.ReservationFilter{RoomID: id})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &billing.ReferentialIntegrityError{
				Kind:   "room",
				ID:     string(id),
				Reason: fmt.Sprintf("referenced by %d reservation(s)", len(refs)),
			}
		}
		if err := u.DeleteRoom(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditRoomDeleted, fmt.Sprintf("Room %s deleted.", room.Name))
	})
}

func validateRoom(r billing.Room) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return &billing.ValidationError{Field: "name", Reason: "required"}
	case !r.Status.Valid():
		return &billing.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown room status %q", r.Status)}
	case r.Price.IsNegative():
		return &billing.ValidationError{Field: "price", Reason: "must not be negative"}
	case r.Capacity < 0:
		return &billing.ValidationError{Field: "capacity", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (s *Service) GetGuest(ctx context.Context, id billing.GuestID) (billing.Guest, error) {
	if _, err := authorize(ctx, PermGuests); err != nil {
		return billing.Guest{}, err
	}
	return s.store.GetGuest(ctx, id)
}

func (s *Service) ListGuests(ctx context.Context) ([]billing.Guest, error) {
	if _, err := authorize(ctx, PermGuests); err != nil {
		return nil, err
	}
	return s.store.ListGuests(ctx)
}

func (s *Service) AddGuest(ctx context.Context, g billing.Guest) (billing.Guest, error) {
	actor, err := authorize(ctx, PermGuests)
	if err != nil {
		return billing.Guest{}, err
	}
	if strings.TrimSpace(g.Name) == "" {
		return billing.Guest{}, &billing.ValidationError{Field: "name", Reason: "required"}
	}
	g.ID = billing.GuestID(s.ids.NewID(billing.PrefixGuest))

	err = s.mutate(ctx, actor, func(u *unit) error {
		if err := u.SaveGuest(ctx, g); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditGuestCreated, fmt.Sprintf("Guest %s added.", g.Name))
	})
	if err != nil {
		return billing.Guest{}, err
	}
	return g, nil
}

func (s *Service) UpdateGuest(ctx context.Context, g billing.Guest) (billing.Guest, error) {
	actor, err := authorize(ctx, PermGuests)
	if err != nil {
		return billing.Guest{}, err
	}
	if strings.TrimSpace(g.Name) == "" {
		return billing.Guest{}, &billing.ValidationError{Field: "name", Reason: "required"}
	}

	err = s.mutate(ctx, actor, func(u *unit) error {
		if _, err := u.GetGuest(ctx, g.ID); err != nil {
			return err
		}
		if err := u.SaveGuest(ctx, g); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditGuestUpdated, fmt.Sprintf("Guest %s updated.", g.Name))
	})
	if err != nil {
		return billing.Guest{}, err
	}
	return g, nil
}

// DeleteGuest removes a guest no reservation refers to.
func (s *Service) DeleteGuest(ctx context.Context, id billing.GuestID) error {
	actor, err := authorize(ctx, PermGuests)
	if err != nil {
		return err
	}
	return s.mutate(ctx, actor, func(u *unit) error {
		g, err := u.GetGuest(ctx, id)
		if err != nil {
			return err
		}
		refs, err := u.ListReservations(ctx, billing.ReservationFilter{GuestID: id})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &billing.ReferentialIntegrityError{
				Kind:   "guest",
				ID:     string(id),
				Reason: fmt.Sprintf("referenced by %d reservation(s)", len(refs)),
			}
		}
		if err := u.DeleteGuest(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, billing.AuditGuestDeleted, fmt.Sprintf("Guest %s deleted.", g.Name))
	})
}
