package propagation

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// VersionGuard tracks the highest team version applied to each workspace, so
// that a redelivered or out-of-order event carrying an older workspace
// snapshot is discarded instead of overwriting newer state. Events without a
// team version (version 0) are always applied.
type VersionGuard interface {
	// Stale reports whether version is older than the last recorded
	// version for the workspace.
	Stale(ctx context.Context, workspaceID string, version int64) (bool, error)
	// Record stores version for the workspace if it is newer than the
	// current record.
	Record(ctx context.Context, workspaceID string, version int64) error
}

const (
	guardKeyPrefix = "crewsync:wsver:"
	guardKeyTTL    = 30 * 24 * time.Hour
)

// recordScript sets the version only when it advances, refreshing the TTL
// either way so active workspaces never expire mid-stream.
var recordScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur or tonumber(ARGV[1]) > tonumber(cur) then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return 1
end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 0
`)

type redisGuard struct {
	rdb redis.UniversalClient
}

// NewRedisGuard builds a guard backed by Redis, for deployments where
// consumers are horizontally scaled and an in-process table is not enough.
func NewRedisGuard(rdb redis.UniversalClient) VersionGuard {
	return &redisGuard{rdb: rdb}
}

func (g *redisGuard) Stale(ctx context.Context, workspaceID string, version int64) (bool, error) {
	if version == 0 {
		return false, nil
	}
	val, err := g.rdb.Get(ctx, guardKeyPrefix+workspaceID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read workspace version")
	}
	cur, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, errors.Wrap(err, "parse workspace version")
	}
	return version < cur, nil
}

func (g *redisGuard) Record(ctx context.Context, workspaceID string, version int64) error {
	if version == 0 {
		return nil
	}
	err := recordScript.Run(ctx, g.rdb,
		[]string{guardKeyPrefix + workspaceID},
		version, guardKeyTTL.Milliseconds()).Err()
	return errors.Wrap(err, "record workspace version")
}

type memoryGuard struct {
	mu       sync.Mutex
	versions map[string]int64
}

// NewMemoryGuard builds an in-process guard, sufficient when all consumers
// share one process.
func NewMemoryGuard() VersionGuard {
	return &memoryGuard{versions: make(map[string]int64)}
}

func (g *memoryGuard) Stale(_ context.Context, workspaceID string, version int64) (bool, error) {
	if version == 0 {
		return false, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return version < g.versions[workspaceID], nil
}

func (g *memoryGuard) Record(_ context.Context, workspaceID string, version int64) error {
	if version == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if version > g.versions[workspaceID] {
		g.versions[workspaceID] = version
	}
	return nil
}
