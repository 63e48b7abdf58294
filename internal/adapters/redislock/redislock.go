// Package redislock implements the cross-run lock on Redis. The lock is
// advisory: it prevents two scheduler invocations from overlapping, while the
// per-investment gate in the database remains the correctness backstop.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yieldcrest/invest_accrual/internal/apperrors"
	portssvc "github.com/yieldcrest/invest_accrual/internal/core/ports/services"
)

const defaultLockKey = "invest_accrual:run_lock"

// releaseScript deletes the lock only when the caller still owns it, so a run
// that outlived its TTL cannot release a lock acquired by a newer run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements the RunLocker port on a Redis client.
type Locker struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

var _ portssvc.RunLocker = (*Locker)(nil)

// NewLocker creates a Redis-backed run lock. An empty key falls back to the
// default.
func NewLocker(client redis.UniversalClient, key string, logger *slog.Logger) *Locker {
	if key == "" {
		key = defaultLockKey
	}
	return &Locker{client: client, key: key, logger: logger}
}

// Acquire takes the lock with SET NX and the given TTL. It returns
// apperrors.ErrRunInProgress when the lock is held elsewhere. The returned
// release function is safe to call after the TTL expired.
func (l *Locker) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrRunInProgress
	}

	release := func(releaseCtx context.Context) {
		if _, err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Result(); err != nil {
			// The TTL still bounds how long a stale lock can linger.
			l.logger.Warn("failed to release run lock", slog.String("error", err.Error()))
		}
	}
	return release, nil
}
