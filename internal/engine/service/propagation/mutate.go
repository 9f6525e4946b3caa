package propagation

import (
	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/internal/engine/model/workspace"
)

// Membership structures are sets keyed by user id. Every mutation here is an
// upsert or a filter, never a blind append, so re-applying the same event
// leaves the structures unchanged.

func upsertUser(users []workspace.UserEntry, id string, role event.Role) ([]workspace.UserEntry, bool) {
	for i := range users {
		if users[i].ID == id {
			if users[i].Role == role {
				return users, false
			}
			users[i].Role = role
			return users, true
		}
	}
	return append(users, workspace.UserEntry{ID: id, Role: role}), true
}

func removeUser(users []workspace.UserEntry, id string) ([]workspace.UserEntry, bool) {
	out := users[:0]
	changed := false
	for _, u := range users {
		if u.ID == id {
			changed = true
			continue
		}
		out = append(out, u)
	}
	return out, changed
}

func upsertAdmin(admins []workspace.AdminEntry, id, name string) ([]workspace.AdminEntry, bool) {
	for i := range admins {
		if admins[i].ID == id {
			if admins[i].Name == name {
				return admins, false
			}
			admins[i].Name = name
			return admins, true
		}
	}
	return append(admins, workspace.AdminEntry{ID: id, Name: name}), true
}

func removeAdmin(admins []workspace.AdminEntry, id string) ([]workspace.AdminEntry, bool) {
	out := admins[:0]
	changed := false
	for _, a := range admins {
		if a.ID == id {
			changed = true
			continue
		}
		out = append(out, a)
	}
	return out, changed
}

// setPermissionRole updates an existing ACL entry in place. Users without a
// prior entry are left alone; ownership transfer does not grant new
// workspace-scoped access by itself.
func setPermissionRole(perms []workspace.PermissionEntry, id string, role event.Role) ([]workspace.PermissionEntry, bool) {
	for i := range perms {
		if perms[i].ID == id {
			if perms[i].Role == role {
				return perms, false
			}
			perms[i].Role = role
			return perms, true
		}
	}
	return perms, false
}

// demoteUser resets an existing member to the default non-admin role. Users
// not present in the workspace are not added.
func demoteUser(users []workspace.UserEntry, id string) ([]workspace.UserEntry, bool) {
	for i := range users {
		if users[i].ID == id {
			if users[i].Role == event.RoleEditor {
				return users, false
			}
			users[i].Role = event.RoleEditor
			return users, true
		}
	}
	return users, false
}
