// Copyright 2025 CrewSync Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package event defines the team-membership event catalog: the fixed set of
// event kinds, their payload shapes, and the topic/subscription names that
// form the wire contract between emitters and consumers.
package event

// Kind identifies a team-membership event kind.
type Kind string

const (
	UserAddedToTeam     Kind = "UserAddedToTeam"
	UserRemovedFromTeam Kind = "UserRemovedFromTeam"
	TeamOwnerChanged    Kind = "TeamOwnerChanged"
	TeamAdminAdded      Kind = "TeamAdminAdded"
	TeamAdminDemoted    Kind = "TeamAdminDemoted"
)

// Kinds lists every event kind in the catalog.
func Kinds() []Kind {
	return []Kind{
		UserAddedToTeam,
		UserRemovedFromTeam,
		TeamOwnerChanged,
		TeamAdminAdded,
		TeamAdminDemoted,
	}
}

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case UserAddedToTeam, UserRemovedFromTeam, TeamOwnerChanged, TeamAdminAdded, TeamAdminDemoted:
		return true
	}
	return false
}

// Role is a workspace-level role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor" // default non-admin workspace role
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known workspace role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// WorkspaceRef is a snapshot reference to a workspace owned by the team at
// the time the event was produced.
type WorkspaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamMembershipEvent is the unit of work flowing through the channel.
// Events are immutable once published.
type TeamMembershipEvent struct {
	Kind   Kind   `json:"kind"`
	TeamID string `json:"teamId"`
	// TeamVersion is a monotonic per-team counter stamped by the emitter.
	// Zero means the emitter does not version its events; such events are
	// always applied.
	TeamVersion int64  `json:"teamVersion,omitempty"`
	UserID      string `json:"userId"`
	// Role is required for UserAddedToTeam and absent for every other kind.
	Role       Role           `json:"role,omitempty"`
	Workspaces []WorkspaceRef `json:"teamWorkspaces"`
}

// topicByKind maps each kind to its topic. One topic and one durable
// subscription per kind lets consumer instances scale per event kind
// without stealing each other's messages. These names are part of the wire
// contract; they must match exactly between publisher and subscriber
// deployments.
var topicByKind = map[Kind]string{
	UserAddedToTeam:     "crewsync.team.user-added",
	UserRemovedFromTeam: "crewsync.team.user-removed",
	TeamOwnerChanged:    "crewsync.team.owner-changed",
	TeamAdminAdded:      "crewsync.team.admin-added",
	TeamAdminDemoted:    "crewsync.team.admin-demoted",
}

var subscriptionByKind = map[Kind]string{
	UserAddedToTeam:     "permprop-user-added",
	UserRemovedFromTeam: "permprop-user-removed",
	TeamOwnerChanged:    "permprop-owner-changed",
	TeamAdminAdded:      "permprop-admin-added",
	TeamAdminDemoted:    "permprop-admin-demoted",
}

// Topic returns the topic for an event kind.
func Topic(kind Kind) string {
	return topicByKind[kind]
}

// Subscription returns the durable subscription (consumer group) name for an
// event kind.
func Subscription(kind Kind) string {
	return subscriptionByKind[kind]
}

// DeadLetterTopic returns the dead-letter topic paired with a kind's topic.
func DeadLetterTopic(kind Kind) string {
	return topicByKind[kind] + ".dlq"
}
