package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/internal/engine/model/workspace"
)

func TestUpsertUser(t *testing.T) {
	users, changed := upsertUser(nil, "u1", event.RoleEditor)
	assert.True(t, changed)
	assert.Equal(t, []workspace.UserEntry{{ID: "u1", Role: event.RoleEditor}}, users)

	// Same role again: no change.
	users, changed = upsertUser(users, "u1", event.RoleEditor)
	assert.False(t, changed)
	assert.Len(t, users, 1)

	// Role change replaces in place.
	users, changed = upsertUser(users, "u1", event.RoleAdmin)
	assert.True(t, changed)
	assert.Equal(t, []workspace.UserEntry{{ID: "u1", Role: event.RoleAdmin}}, users)
}

func TestRemoveUser(t *testing.T) {
	users := []workspace.UserEntry{
		{ID: "u1", Role: event.RoleAdmin},
		{ID: "u2", Role: event.RoleViewer},
	}
	users, changed := removeUser(users, "u1")
	assert.True(t, changed)
	assert.Equal(t, []workspace.UserEntry{{ID: "u2", Role: event.RoleViewer}}, users)

	users, changed = removeUser(users, "absent")
	assert.False(t, changed)
	assert.Len(t, users, 1)
}

func TestUpsertAdmin(t *testing.T) {
	admins, changed := upsertAdmin(nil, "u1", "Ada")
	assert.True(t, changed)

	admins, changed = upsertAdmin(admins, "u1", "Ada")
	assert.False(t, changed)
	assert.Len(t, admins, 1)

	// Name refresh updates the existing entry, never appends.
	admins, changed = upsertAdmin(admins, "u1", "Ada L.")
	assert.True(t, changed)
	assert.Equal(t, []workspace.AdminEntry{{ID: "u1", Name: "Ada L."}}, admins)
}

func TestRemoveAdmin(t *testing.T) {
	admins := []workspace.AdminEntry{{ID: "u1", Name: "Ada"}}
	admins, changed := removeAdmin(admins, "u1")
	assert.True(t, changed)
	assert.Empty(t, admins)

	_, changed = removeAdmin(admins, "u1")
	assert.False(t, changed)
}

func TestSetPermissionRole(t *testing.T) {
	perms := []workspace.PermissionEntry{{ID: "u1", Role: event.RoleViewer}}

	perms, changed := setPermissionRole(perms, "u1", event.RoleAdmin)
	assert.True(t, changed)
	assert.Equal(t, event.RoleAdmin, perms[0].Role)

	// No existing grant: silent no-op, never an insert.
	perms, changed = setPermissionRole(perms, "u2", event.RoleAdmin)
	assert.False(t, changed)
	assert.Len(t, perms, 1)
}

func TestDemoteUser(t *testing.T) {
	users := []workspace.UserEntry{{ID: "u1", Role: event.RoleAdmin}}

	users, changed := demoteUser(users, "u1")
	assert.True(t, changed)
	assert.Equal(t, event.RoleEditor, users[0].Role)

	users, changed = demoteUser(users, "u1")
	assert.False(t, changed)

	// Absent users are not inserted.
	users, changed = demoteUser(users, "ghost")
	assert.False(t, changed)
	assert.Len(t, users, 1)
}
