// Package breaker implements a circuit breaker for calls to external
// dependencies (email provider, datastore, knowledge-base service).
// One long-lived Breaker guards one dependency for the process lifetime;
// state is never persisted and resets to closed on boot.
package breaker

import (
	"sync"
	"time"
)

// State is the circuit state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Breaker is a mutex-guarded circuit breaker. After FailureThreshold
// consecutive failures the circuit opens; once RecoveryTimeout has elapsed
// the next CanExecute flips it to half-open and admits probe calls.
//
// Half-open admits every concurrent probe, not a single bounded one. That
// looseness is deliberate: a successful probe closes the circuit for all
// callers, and a failed one reopens it.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	recoveryTimeout  time.Duration

	state       State
	failures    int
	lastFailure time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a closed breaker. failureThreshold must be >= 1.
func New(name string, failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Name returns the dependency this breaker guards.
func (b *Breaker) Name() string { return b.name }

// CanExecute reports whether a call to the dependency should be attempted.
// When the circuit is open and the recovery timeout has elapsed, it
// transitions to half-open and returns true so the caller can probe.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	}
	return false
}

// RecordSuccess resets the failure count and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

// RecordFailure counts a failed call. In the closed state the circuit opens
// once the threshold is reached; in half-open a single failure reopens it.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		return
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
	}
}

// Status is a point-in-time snapshot of a breaker.
type Status struct {
	Name             string    `json:"name"`
	State            State     `json:"state"`
	Failures         int       `json:"failures"`
	FailureThreshold int       `json:"failure_threshold"`
	LastFailure      time.Time `json:"last_failure,omitzero"`
}

// Status returns a snapshot of the breaker. It does not mutate state, so
// repeated calls without intervening RecordSuccess/RecordFailure return
// identical output.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Status{
		Name:             b.name,
		State:            b.state,
		Failures:         b.failures,
		FailureThreshold: b.failureThreshold,
		LastFailure:      b.lastFailure,
	}
}
