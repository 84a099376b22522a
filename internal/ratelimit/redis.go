package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts in a shared Redis instance so multiple gateway processes
// see one counter per key. When Redis is unreachable, at construction or at
// call time, it transparently degrades to an embedded MemoryStore; the
// degradation is logged once, not per request.
type RedisStore struct {
	rdb      *redis.Client
	fallback *MemoryStore
	logger   *slog.Logger

	degraded     atomic.Bool
	degradedOnce sync.Once
}

// NewRedisStore connects to redisURL and verifies connectivity with a ping.
// A failed parse or ping does not error: the store starts degraded.
func NewRedisStore(ctx context.Context, redisURL string, logger *slog.Logger) *RedisStore {
	s := &RedisStore{
		fallback: NewMemoryStore(),
		logger:   logger,
	}
	s.fallback.StartJanitor(ctx)

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		s.degrade(err)
		return s
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		s.degrade(err)
		return s
	}

	s.rdb = rdb
	logger.Info("rate limit store: redis", slog.String("addr", opts.Addr))
	return s
}

func (s *RedisStore) degrade(err error) {
	s.degraded.Store(true)
	s.degradedOnce.Do(func() {
		s.logger.Warn("rate limit store degraded to in-memory counters",
			slog.String("error", err.Error()),
		)
	})
}

// Increment implements Store using INCR plus a TTL refresh in one pipeline.
// INCR is atomic server-side, so racing creators of a fresh key serialize
// in Redis and the second caller observes 2.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	if s.degraded.Load() || s.rdb == nil {
		return s.fallback.Increment(ctx, key, window)
	}

	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.degrade(err)
		return s.fallback.Increment(ctx, key, window)
	}
	return int(incr.Val()), nil
}

// Count implements Store. Missing keys read as 0.
func (s *RedisStore) Count(ctx context.Context, key string) (int, error) {
	if s.degraded.Load() || s.rdb == nil {
		return s.fallback.Count(ctx, key)
	}

	n, err := s.rdb.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		s.degrade(err)
		return s.fallback.Count(ctx, key)
	}
	return n, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if s.degraded.Load() || s.rdb == nil {
		return s.fallback.Reset(ctx, key)
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.degrade(err)
		return s.fallback.Reset(ctx, key)
	}
	return nil
}
