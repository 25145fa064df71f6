package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLocked means another generation for the same evaluation is running.
var ErrLocked = errors.New("report generation already in progress")

// ReleaseFunc frees an obtained lock.
type ReleaseFunc func(ctx context.Context) error

// Locker single-flights generation per evaluation.
type Locker interface {
	Obtain(ctx context.Context, evaluationID int64, ttl time.Duration) (ReleaseFunc, error)
}

// LockKey is the Redis key guarding one evaluation.
func LockKey(evaluationID int64) string {
	return fmt.Sprintf("lock:report:%d", evaluationID)
}

// RedisLocker obtains locks through redislock.
type RedisLocker struct {
	client *redislock.Client
	logger *zap.Logger
}

// NewRedisLocker builds a locker over an existing go-redis client.
func NewRedisLocker(rdb redis.UniversalClient, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), logger: logger}
}

// Obtain returns ErrLocked when the key is held. If Redis itself is
// unreachable the caller proceeds without a lock.
func (l *RedisLocker) Obtain(ctx context.Context, evaluationID int64, ttl time.Duration) (ReleaseFunc, error) {
	key := LockKey(evaluationID)
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		l.logger.Warn("report lock unavailable; continuing unlocked", zap.String("key", key), zap.Error(err))
		return noopRelease, nil
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// NoopLocker never contends.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, int64, time.Duration) (ReleaseFunc, error) {
	return noopRelease, nil
}

func noopRelease(context.Context) error { return nil }
