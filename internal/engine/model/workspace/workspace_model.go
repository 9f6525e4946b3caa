package workspace

import (
	"time"

	"github.com/crewsync/crewsync/internal/engine/event"
)

// UserEntry is a workspace member with its workspace-level role.
type UserEntry struct {
	ID   string     `bson:"id" json:"id"`
	Role event.Role `bson:"role" json:"role"`
}

// AdminEntry is a workspace admin. Kept as a separate structure, not derived
// from Users; the propagation algorithms are responsible for keeping the two
// consistent.
type AdminEntry struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// PermissionEntry is a workspace-scoped ACL entry used for collection and
// environment checks (legacy).
type PermissionEntry struct {
	ID   string     `bson:"id" json:"id"`
	Role event.Role `bson:"role" json:"role"`
}

// Workspace is the workspace document. The membership structures (Users,
// Admins, Permissions) are owned by the propagation engine; each write
// replaces them atomically within the single document.
type Workspace struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	TeamID string `bson:"team_id" json:"teamId"`

	Users       []UserEntry       `bson:"users" json:"users"`
	Admins      []AdminEntry      `bson:"admins" json:"admins"`
	Permissions []PermissionEntry `bson:"permissions" json:"permissions"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// MembershipPatch carries the full replacement membership structures for one
// workspace write.
type MembershipPatch struct {
	Users       []UserEntry
	Admins      []AdminEntry
	Permissions []PermissionEntry
}

// Patch extracts the membership patch from a mutated workspace.
func (w *Workspace) Patch() MembershipPatch {
	return MembershipPatch{
		Users:       w.Users,
		Admins:      w.Admins,
		Permissions: w.Permissions,
	}
}
