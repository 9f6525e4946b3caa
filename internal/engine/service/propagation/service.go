package propagation

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/internal/engine/model/workspace"
	userrepo "github.com/crewsync/crewsync/internal/engine/repo/user"
	wsrepo "github.com/crewsync/crewsync/internal/engine/repo/workspace"
	"github.com/crewsync/crewsync/pkg/keymutex"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
)

const (
	defaultWriteTimeout  = 5 * time.Second
	defaultMaxConcurrent = 16
)

// Config bounds the per-event fan-out.
type Config struct {
	// WriteTimeout caps each per-workspace store write.
	WriteTimeout time.Duration
	// MaxConcurrent caps how many workspace updates run at once within
	// one event.
	MaxConcurrent int64
}

func (c *Config) normalize() {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
}

// IPropagationService applies team membership events to every workspace the
// team owns. All methods are idempotent per workspace: re-applying the same
// event leaves the membership structures unchanged.
type IPropagationService interface {
	Apply(ctx context.Context, evt *event.TeamMembershipEvent) (*Report, error)

	AddUserToWorkspaces(ctx context.Context, refs []event.WorkspaceRef, userId string, role event.Role, teamVersion int64) (*Report, error)
	RemoveUserFromWorkspaces(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error)
	PromoteOwner(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error)
	PromoteAdmin(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error)
	DemoteAdmin(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error)
}

type Service struct {
	workspaces wsrepo.IWorkspaceRepository
	users      userrepo.IUserRepository
	guard      VersionGuard
	locks      *keymutex.KeyMutex
	pm         *metrics.PropagationMetrics
	cfg        Config
}

func NewService(
	workspaces wsrepo.IWorkspaceRepository,
	users userrepo.IUserRepository,
	guard VersionGuard,
	pm *metrics.PropagationMetrics,
	cfg Config,
) IPropagationService {
	cfg.normalize()
	return &Service{
		workspaces: workspaces,
		users:      users,
		guard:      guard,
		locks:      keymutex.New(0),
		pm:         pm,
		cfg:        cfg,
	}
}

// Apply dispatches an event to the method matching its kind.
func (s *Service) Apply(ctx context.Context, evt *event.TeamMembershipEvent) (*Report, error) {
	start := time.Now()
	defer func() {
		if s.pm != nil {
			s.pm.PropagationSeconds.WithLabelValues(string(evt.Kind)).Observe(time.Since(start).Seconds())
		}
	}()

	switch evt.Kind {
	case event.UserAddedToTeam:
		return s.AddUserToWorkspaces(ctx, evt.Workspaces, evt.UserID, evt.Role, evt.TeamVersion)
	case event.UserRemovedFromTeam:
		return s.RemoveUserFromWorkspaces(ctx, evt.Workspaces, evt.UserID, evt.TeamVersion)
	case event.TeamOwnerChanged:
		return s.PromoteOwner(ctx, evt.Workspaces, evt.UserID, evt.TeamVersion)
	case event.TeamAdminAdded:
		return s.PromoteAdmin(ctx, evt.Workspaces, evt.UserID, evt.TeamVersion)
	case event.TeamAdminDemoted:
		return s.DemoteAdmin(ctx, evt.Workspaces, evt.UserID, evt.TeamVersion)
	default:
		return nil, errors.Errorf("unknown event kind: %s", evt.Kind)
	}
}

func (s *Service) AddUserToWorkspaces(ctx context.Context, refs []event.WorkspaceRef, userId string, role event.Role, teamVersion int64) (*Report, error) {
	if role == event.RoleAdmin {
		name := s.resolveName(ctx, userId)
		return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
			var c1, c2 bool
			w.Users, c1 = upsertUser(w.Users, userId, event.RoleAdmin)
			w.Admins, c2 = upsertAdmin(w.Admins, userId, name)
			return c1 || c2
		})
	}
	return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
		var changed bool
		w.Users, changed = upsertUser(w.Users, userId, role)
		return changed
	})
}

func (s *Service) RemoveUserFromWorkspaces(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error) {
	return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
		var c1, c2 bool
		w.Users, c1 = removeUser(w.Users, userId)
		w.Admins, c2 = removeAdmin(w.Admins, userId)
		return c1 || c2
	})
}

func (s *Service) PromoteOwner(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error) {
	return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
		var changed bool
		w.Permissions, changed = setPermissionRole(w.Permissions, userId, event.RoleAdmin)
		return changed
	})
}

func (s *Service) PromoteAdmin(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error) {
	name := s.resolveName(ctx, userId)
	return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
		var c1, c2 bool
		w.Users, c1 = upsertUser(w.Users, userId, event.RoleAdmin)
		w.Admins, c2 = upsertAdmin(w.Admins, userId, name)
		return c1 || c2
	})
}

func (s *Service) DemoteAdmin(ctx context.Context, refs []event.WorkspaceRef, userId string, teamVersion int64) (*Report, error) {
	return s.propagate(ctx, refs, teamVersion, func(w *workspace.Workspace) bool {
		var c1, c2 bool
		w.Users, c1 = demoteUser(w.Users, userId)
		w.Admins, c2 = removeAdmin(w.Admins, userId)
		return c1 || c2
	})
}

// resolveName fetches the display name for admin entries. Lookup failure is
// tolerated; the id doubles as the name so propagation still proceeds.
func (s *Service) resolveName(ctx context.Context, userId string) string {
	u, err := s.users.GetUserById(ctx, userId)
	if err != nil {
		log.Warnw("resolve user name failed, falling back to id",
			"userId", userId, "err", err)
		return userId
	}
	return u.Name
}

// propagate resolves the workspace set in one read, then fans the mutation
// out across workspaces. Each workspace is re-read and written under its own
// key lock so two events racing on the same workspace apply one at a time;
// disjoint workspaces proceed in parallel up to MaxConcurrent.
func (s *Service) propagate(ctx context.Context, refs []event.WorkspaceRef, teamVersion int64, mutate func(*workspace.Workspace) bool) (*Report, error) {
	ids := dedupeIds(refs)
	report := &Report{Requested: ids}
	if len(ids) == 0 {
		return report, nil
	}

	docs, err := s.workspaces.FindByIds(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve workspaces")
	}
	found := make(map[string]bool, len(docs))
	for _, d := range docs {
		found[d.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			report.Missing = append(report.Missing, id)
		}
	}
	if len(report.Missing) > 0 {
		log.Warnw("event references deleted workspaces",
			"missing", report.Missing)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(s.cfg.MaxConcurrent)
	)
	for _, d := range docs {
		id := d.ID
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			report.Failures = append(report.Failures, WorkspaceFailure{WorkspaceID: id, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			outcome, err := s.applyOne(ctx, id, teamVersion, mutate)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failures = append(report.Failures, WorkspaceFailure{WorkspaceID: id, Err: err})
				s.count("failed")
			case outcome == outcomeApplied:
				report.Applied = append(report.Applied, id)
				s.count("applied")
			default:
				report.Skipped = append(report.Skipped, id)
				s.count("skipped")
			}
		}()
	}
	wg.Wait()
	return report, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeApplied
)

// applyOne runs the read-modify-write for a single workspace under its key
// lock. The document is re-read inside the lock; the batched read in
// propagate only establishes existence.
func (s *Service) applyOne(ctx context.Context, id string, teamVersion int64, mutate func(*workspace.Workspace) bool) (outcome, error) {
	var (
		out  outcome
		rerr error
	)
	s.locks.Do(id, func() {
		stale, err := s.guard.Stale(ctx, id, teamVersion)
		if err != nil {
			rerr = err
			return
		}
		if stale {
			log.Infow("discarding stale event for workspace",
				"workspaceId", id, "teamVersion", teamVersion)
			return
		}

		w, err := s.workspaces.GetWorkspaceById(ctx, id)
		if err != nil {
			rerr = err
			return
		}
		if !mutate(w) {
			rerr = s.guard.Record(ctx, id, teamVersion)
			return
		}

		wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
		if err := s.workspaces.UpdateMembership(wctx, id, w.Patch()); err != nil {
			rerr = err
			return
		}
		out = outcomeApplied
		rerr = s.guard.Record(ctx, id, teamVersion)
	})
	return out, rerr
}

func (s *Service) count(result string) {
	if s.pm != nil {
		s.pm.WorkspaceUpdatesTotal.WithLabelValues(result).Inc()
	}
}

func dedupeIds(refs []event.WorkspaceRef) []string {
	seen := make(map[string]bool, len(refs))
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		ids = append(ids, r.ID)
	}
	return ids
}
