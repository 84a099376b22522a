// Package ratelimit implements fixed-window request counting, keyed per
// tenant and endpoint, on top of a pluggable counter store.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Store is the counter contract shared by the in-memory and Redis
// implementations. Keys are opaque strings; each key carries a TTL set on
// creation.
type Store interface {
	// Increment bumps the counter for key, creating it with count 1 and an
	// expiry of window from now when absent or expired, and returns the
	// resulting count. Two increments racing to create the same fresh key
	// must serialize: the second caller observes 2.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)

	// Count returns the current counter for key without mutating it.
	// Absent or expired keys count as 0.
	Count(ctx context.Context, key string) (int, error)

	// Reset forcibly clears a key.
	Reset(ctx context.Context, key string) error
}

// NewStore selects the counter store once at startup. An empty redisURL
// selects the single-process in-memory store; otherwise a Redis-backed store
// is created, which itself degrades to in-memory when Redis is unreachable.
func NewStore(ctx context.Context, redisURL string, logger *slog.Logger) Store {
	if redisURL == "" {
		logger.Info("rate limit store: in-memory")
		mem := NewMemoryStore()
		mem.StartJanitor(ctx)
		return mem
	}
	return NewRedisStore(ctx, redisURL, logger)
}
