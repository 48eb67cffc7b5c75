// Package resilience provides the retry and circuit-breaker wrappers used
// around outbound remote calls. This file implements the circuit breaker.
//
// BREAKER MODEL:
// Two observable states, CLOSED and OPEN. The half-open probe is a code path
// rather than a third state value: once ResetTimeout has elapsed since the
// last failure, the next call passes through as a probe. A successful probe
// closes the breaker and resets its counters; a failed probe re-opens it and
// restarts the timer. Status snapshots therefore only ever report CLOSED or
// OPEN.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tallydesk/tally/internal/logging"
)

// State is the observable circuit breaker state.
type State string

const (
	// StateClosed means calls pass through normally.
	StateClosed State = "CLOSED"
	// StateOpen means calls are short-circuited until a probe succeeds.
	StateOpen State = "OPEN"
)

// OpenError is returned when the breaker short-circuits a call without
// invoking the wrapped function. Distinct from any error the dependency
// itself could produce so callers can tell "didn't even try" from "tried
// and failed".
type OpenError struct {
	Name      string        // Breaker name for diagnostics
	RetryIn   time.Duration // Time until the next probe is allowed
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q open: next probe in %s", e.Name, e.RetryIn.Round(time.Millisecond))
}

// BreakerOptions configures a circuit breaker. Zero values fall back to the
// defaults (threshold 5, reset timeout 30s).
type BreakerOptions struct {
	FailureThreshold int           // Consecutive failures before opening
	ResetTimeout     time.Duration // Cooldown before allowing a probe
}

// DefaultBreakerOptions returns the standard breaker policy.
func DefaultBreakerOptions() BreakerOptions {
	return BreakerOptions{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

func (o BreakerOptions) normalize() BreakerOptions {
	defaults := DefaultBreakerOptions()
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = defaults.FailureThreshold
	}
	if o.ResetTimeout <= 0 {
		o.ResetTimeout = defaults.ResetTimeout
	}
	return o
}

// BreakerStatus is a read-only snapshot of breaker state for observability
// endpoints. Reading a status never mutates the breaker.
type BreakerStatus struct {
	Name        string    `json:"name"`
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// CircuitBreaker guards one remote call-site. State is process-local and
// never persisted; construct one instance per protected dependency (usually
// through a Registry) rather than sharing a package global.
//
// Counter updates are mutex-guarded, so concurrent callers see a consistent
// failure count.
type CircuitBreaker struct {
	mu          sync.Mutex
	name        string
	opts        BreakerOptions
	failures    int
	lastFailure time.Time

	// now is injectable so tests can step through the reset timeout.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker for the named call-site.
func NewCircuitBreaker(name string, opts BreakerOptions) *CircuitBreaker {
	return &CircuitBreaker{
		name: name,
		opts: opts.normalize(),
		now:  time.Now,
	}
}

// Do invokes fn unless the breaker is open and still inside its cooldown, in
// which case it returns an *OpenError immediately without calling fn. After
// the cooldown the call proceeds as a probe. fn's outcome updates the
// failure counters: success resets them, failure increments and records the
// failure time (re-arming the cooldown).
func (cb *CircuitBreaker) Do(ctx context.Context, fn func(context.Context) error) error {
	cb.mu.Lock()
	if cb.failures >= cb.opts.FailureThreshold {
		remaining := cb.opts.ResetTimeout - cb.now().Sub(cb.lastFailure)
		if remaining > 0 {
			cb.mu.Unlock()
			return &OpenError{Name: cb.name, RetryIn: remaining}
		}
		// Cooldown elapsed: let this call through as the probe.
		logging.Debug("Breaker: %s allowing probe after cooldown", cb.name)
	}
	cb.mu.Unlock()

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.failures == cb.opts.FailureThreshold {
			logging.Warn("Breaker: %s opened after %d consecutive failures", cb.name, cb.failures)
		}
		return err
	}

	if cb.failures >= cb.opts.FailureThreshold {
		logging.Info("Breaker: %s closed after successful probe", cb.name)
	}
	cb.failures = 0
	return nil
}

// Status returns a read-only snapshot of the breaker. The state reported is
// the two-value observable model: OPEN whenever the consecutive-failure
// count has reached the threshold, CLOSED otherwise.
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := StateClosed
	if cb.failures >= cb.opts.FailureThreshold {
		state = StateOpen
	}
	return BreakerStatus{
		Name:        cb.name,
		State:       state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
	}
}

// Execute runs fn through the breaker and carries its return value. Package
// function rather than a method because Go methods cannot introduce type
// parameters.
func Execute[T any](cb *CircuitBreaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var value T
	err := cb.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		value, innerErr = fn(ctx)
		return innerErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
