package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/config"
)

const redisPingTimeout = 2 * time.Second

// errRedisDisabled is reported by health checks when no client exists.
var errRedisDisabled = errors.New("redis client not configured")

// Redis holds the client used for report generation locks.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis opens the client. An unreachable server is logged but not fatal:
// locks fall back to best effort and the health endpoint reports the outage.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisPingTimeout,
		MaxRetries:  1,
	})

	r := &Redis{client: client}
	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, report locks are best effort",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis ready", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return r
}

// Client exposes the underlying client for lock construction.
func (r *Redis) Client() redis.UniversalClient {
	if r == nil {
		return nil
	}
	return r.client
}

// Ping checks connectivity within a short deadline.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errRedisDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}
