package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a single-process counter store: a map of key to
// (count, expiry) under one mutex. Expired entries are evicted lazily on
// any access that touches them and periodically by the janitor sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	sweepEvery time.Duration

	// now is swappable for tests.
	now func() time.Time
}

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		sweepEvery: 2 * time.Minute,
		now:        time.Now,
	}
}

// Increment implements Store. The whole check-create-increment sequence runs
// under the mutex, so concurrent creators of a fresh key serialize.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !ent.expiresAt.After(now) {
		s.entries[key] = &memoryEntry{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}

	ent.count++
	return ent.count, nil
}

// Count implements Store. Expired entries read as 0 and are evicted.
func (s *MemoryStore) Count(_ context.Context, key string) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	if !ent.expiresAt.After(now) {
		delete(s.entries, key)
		return 0, nil
	}
	return ent.count, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// sweep drops every expired entry.
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !ent.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor runs a periodic full sweep until ctx is cancelled. Lazy
// eviction keeps hot keys correct on its own; the janitor only bounds memory
// held by keys that are never touched again.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.sweep()
			}
		}
	}()
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
