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

// Package emitter publishes team membership events after a team mutation
// commits. Events for the same team share a partition key so a partitioned
// transport keeps them in order.
package emitter

import (
	"context"

	"github.com/pkg/errors"

	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/pkg/channel"
	"github.com/crewsync/crewsync/pkg/id"
	"github.com/crewsync/crewsync/pkg/log"
)

type Emitter struct {
	broker channel.Broker
}

func New(broker channel.Broker) *Emitter {
	return &Emitter{broker: broker}
}

// Emit validates and publishes a single event to its kind's topic. It
// returns once the transport has accepted the message.
func (e *Emitter) Emit(ctx context.Context, evt *event.TeamMembershipEvent) error {
	data, err := event.Encode(evt)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	headers := map[string]string{"messageId": id.MessageID()}
	if err := e.broker.SendMessage(ctx, event.Topic(evt.Kind), evt.TeamID, data, headers); err != nil {
		return errors.Wrap(err, "publish event")
	}
	log.Debugw("event published",
		"kind", evt.Kind, "teamId", evt.TeamID, "userId", evt.UserID)
	return nil
}

func (e *Emitter) UserAdded(ctx context.Context, teamId, userId string, role event.Role, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.Emit(ctx, &event.TeamMembershipEvent{
		Kind:        event.UserAddedToTeam,
		TeamID:      teamId,
		TeamVersion: teamVersion,
		UserID:      userId,
		Role:        role,
		Workspaces:  refs,
	})
}

func (e *Emitter) UserRemoved(ctx context.Context, teamId, userId string, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.emitPlain(ctx, event.UserRemovedFromTeam, teamId, userId, refs, teamVersion)
}

func (e *Emitter) OwnerChanged(ctx context.Context, teamId, userId string, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.emitPlain(ctx, event.TeamOwnerChanged, teamId, userId, refs, teamVersion)
}

func (e *Emitter) AdminAdded(ctx context.Context, teamId, userId string, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.emitPlain(ctx, event.TeamAdminAdded, teamId, userId, refs, teamVersion)
}

func (e *Emitter) AdminDemoted(ctx context.Context, teamId, userId string, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.emitPlain(ctx, event.TeamAdminDemoted, teamId, userId, refs, teamVersion)
}

func (e *Emitter) emitPlain(ctx context.Context, kind event.Kind, teamId, userId string, refs []event.WorkspaceRef, teamVersion int64) error {
	return e.Emit(ctx, &event.TeamMembershipEvent{
		Kind:        kind,
		TeamID:      teamId,
		TeamVersion: teamVersion,
		UserID:      userId,
		Workspaces:  refs,
	})
}
