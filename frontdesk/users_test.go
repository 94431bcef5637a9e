package frontdesk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/billing"
)

func TestAddUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.AddUser(as(admin), billing.User{Username: "carla", Name: "Carla", Role: billing.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, billing.UserID("user_1"), u.ID)
	assert.True(t, u.Active)

	_, err = f.svc.AddUser(as(admin), billing.User{Username: "CARLA", Role: billing.RoleHousekeeping})
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	_, err = f.svc.AddUser(as(admin), billing.User{Username: "diego", Role: "manager"})
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	users, err := f.svc.ListUsers(as(admin))
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.AddUser(as(admin), billing.User{Username: "ana", Role: billing.RoleEmployee})
	require.NoError(t, err)
	b, err := f.svc.AddUser(as(admin), billing.User{Username: "bruno", Role: billing.RoleEmployee})
	require.NoError(t, err)

	// Renaming onto another user's name is refused, keeping one's own is not.
	b.Username = "Ana"
	_, err = f.svc.UpdateUser(as(admin), b)
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	a.Role = billing.RoleAdmin
	_, err = f.svc.UpdateUser(as(admin), a)
	require.NoError(t, err)

	_, err = f.svc.UpdateUser(as(admin), billing.User{ID: "user_999", Username: "ghost", Role: billing.RoleAdmin})
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestToggleUserStatus(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.AddUser(as(admin), billing.User{Username: "bruno", Role: billing.RoleEmployee})
	require.NoError(t, err)

	// WHEN: the user is deactivated
	u, err = f.svc.ToggleUserStatus(as(admin), u.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)

	// THEN: they can no longer act
	_, err = f.svc.ResolveActor(context.Background(), u.ID)
	assert.ErrorIs(t, err, billing.ErrForbidden)

	entries := f.audit(t, billing.AuditUserStatus)
	require.Len(t, entries, 1)
	assert.Equal(t, "User bruno deactivated.", entries[0].Details)

	// WHEN: toggled again they are back
	u, err = f.svc.ToggleUserStatus(as(admin), u.ID)
	require.NoError(t, err)
	assert.True(t, u.Active)
	a, err := f.svc.ResolveActor(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bruno", a.Username)
}

func TestUsers_CannotTargetSelf(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleUserStatus(as(admin), admin.ID)
	assert.ErrorIs(t, err, billing.ErrInvalidInput)

	assert.ErrorIs(t, f.svc.DeleteUser(as(admin), admin.ID), billing.ErrInvalidInput)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.AddUser(as(admin), billing.User{Username: "bruno", Role: billing.RoleEmployee})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(as(admin), u.ID))

	_, err = f.svc.ResolveActor(context.Background(), u.ID)
	assert.ErrorIs(t, err, billing.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteUser(as(admin), u.ID), billing.ErrNotFound)
}
