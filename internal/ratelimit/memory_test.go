package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestMemoryStore() (*MemoryStore, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_IncrementCreatesAndCounts(t *testing.T) {
	s, _ := newTestMemoryStore()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := s.Increment(ctx, "k1", time.Minute)
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if got != want {
			t.Errorf("Increment() = %d, want %d", got, want)
		}
	}

	if got, _ := s.Count(ctx, "k1"); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	if got, _ := s.Count(ctx, "absent"); got != 0 {
		t.Errorf("Count(absent) = %d, want 0", got)
	}
}

func TestMemoryStore_ExpiryResetsCounter(t *testing.T) {
	s, now := newTestMemoryStore()
	ctx := context.Background()

	s.Increment(ctx, "k1", time.Minute)
	s.Increment(ctx, "k1", time.Minute)

	*now = now.Add(61 * time.Second)

	if got, _ := s.Count(ctx, "k1"); got != 0 {
		t.Errorf("Count() after expiry = %d, want 0", got)
	}
	if got, _ := s.Increment(ctx, "k1", time.Minute); got != 1 {
		t.Errorf("Increment() after expiry = %d, want 1", got)
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	s, _ := newTestMemoryStore()
	ctx := context.Background()

	s.Increment(ctx, "k1", time.Minute)
	if err := s.Reset(ctx, "k1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got, _ := s.Count(ctx, "k1"); got != 0 {
		t.Errorf("Count() after reset = %d, want 0", got)
	}
}

func TestMemoryStore_SweepEvictsExpired(t *testing.T) {
	s, now := newTestMemoryStore()
	ctx := context.Background()

	s.Increment(ctx, "old", time.Minute)
	*now = now.Add(2 * time.Minute)
	s.Increment(ctx, "fresh", time.Minute)

	s.sweep()

	if got := s.size(); got != 1 {
		t.Errorf("entries after sweep = %d, want 1", got)
	}
}

func TestMemoryStore_ConcurrentCreationRace(t *testing.T) {
	// Racing creators of a fresh key must serialize: total count equals the
	// number of increments, never two independent count=1 entries.
	s := NewMemoryStore()
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := s.Increment(ctx, "shared", time.Minute); err != nil {
					t.Errorf("Increment() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, _ := s.Count(ctx, "shared")
	if got != goroutines*perGoroutine {
		t.Errorf("Count() = %d, want %d", got, goroutines*perGoroutine)
	}
}
