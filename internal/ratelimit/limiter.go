package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter turns (tenant, endpoint) pairs into allow/deny decisions backed by
// fixed-window counters in a Store.
//
// Windows are aligned to UTC wall-clock boundaries, not to the first request:
// a burst straddling a boundary can admit up to twice MaxRequests in a short
// span. Downstream headers and tests rely on these fixed-window semantics.
type Limiter struct {
	store  Store
	policy *Policy

	// now is swappable for tests.
	now func() time.Time
}

// Result is one rate-limit decision with the counters behind it.
type Result struct {
	Allowed bool
	Current int
	Limit   int
	// Window is the policy window in seconds, surfaced as retry_after on denial.
	Window int
	// Reset is seconds until the current bucket ends.
	Reset int
}

// NewLimiter creates a limiter over store with the given endpoint policy.
func NewLimiter(store Store, policy *Policy) *Limiter {
	return &Limiter{store: store, policy: policy, now: time.Now}
}

// bucket derives the fixed-window time bucket for a window size: daily for
// windows of a day or more, hourly for an hour or more, otherwise minute.
// The string is UTC wall-clock truncated to that granularity, so every
// request in the same tenant+endpoint+window maps to the same key and the
// counter resets automatically when the clock crosses a boundary.
func bucket(now time.Time, windowSeconds int) string {
	now = now.UTC()
	switch {
	case windowSeconds >= 86400:
		return now.Format("20060102")
	case windowSeconds >= 3600:
		return now.Format("2006010215")
	default:
		return now.Format("200601021504")
	}
}

// bucketReset returns seconds until the current bucket boundary.
func bucketReset(now time.Time, windowSeconds int) int {
	now = now.UTC()
	var next time.Time
	switch {
	case windowSeconds >= 86400:
		next = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	case windowSeconds >= 3600:
		next = now.Truncate(time.Hour).Add(time.Hour)
	default:
		next = now.Truncate(time.Minute).Add(time.Minute)
	}
	return int(next.Sub(now).Seconds())
}

func key(tenantID, endpoint, bucket string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", tenantID, endpoint, bucket)
}

// Check counts this request against the tenant+endpoint window and reports
// whether it fits under maxRequests. The counter is incremented even when
// the answer is deny, and regardless of whether the request later fails for
// unrelated reasons. A store error fails open: a broken counter backend must
// not take down admission.
func (l *Limiter) Check(ctx context.Context, tenantID, endpoint string, limit Limit) (Result, error) {
	now := l.now()
	window := time.Duration(limit.WindowSeconds) * time.Second

	count, err := l.store.Increment(ctx, key(tenantID, endpoint, bucket(now, limit.WindowSeconds)), window)
	if err != nil {
		return Result{
			Allowed: true,
			Limit:   limit.MaxRequests,
			Window:  limit.WindowSeconds,
			Reset:   bucketReset(now, limit.WindowSeconds),
		}, err
	}

	return Result{
		Allowed: count <= limit.MaxRequests,
		Current: count,
		Limit:   limit.MaxRequests,
		Window:  limit.WindowSeconds,
		Reset:   bucketReset(now, limit.WindowSeconds),
	}, nil
}

// Allow resolves the endpoint's limit from the policy and checks it.
func (l *Limiter) Allow(ctx context.Context, tenantID, endpoint string) (Result, error) {
	return l.Check(ctx, tenantID, endpoint, l.policy.Resolve(endpoint))
}

// Exempt reports whether the path bypasses the limiter entirely.
func (l *Limiter) Exempt(path string) bool {
	return l.policy.Exempt(path)
}
