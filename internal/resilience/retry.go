// Package resilience provides the retry and circuit-breaker wrappers used
// around every outbound remote call in the service: warehouse inserts, cache
// lookups, and chat-platform requests.
//
// Both utilities are independent of each other and of the call they protect;
// they are small, explicit state machines rather than hidden middleware, so
// callers can tell "the dependency failed" apart from "the wrapper refused to
// try" and branch on the underlying cause.
package resilience

import (
	"context"
	"time"

	"github.com/tallydesk/tally/internal/logging"
)

// RetryOptions controls the exponential backoff schedule for Retry. All
// fields are caller-overridable per call site; zero values fall back to the
// defaults below.
type RetryOptions struct {
	MaxRetries   int           // Total attempts including the first
	InitialDelay time.Duration // Delay before the second attempt
	MaxDelay     time.Duration // Upper bound on any single delay
	Factor       float64       // Multiplier applied per attempt
}

// DefaultRetryOptions returns the standard retry policy: three attempts with
// delays of 1s then 2s, capped at 30s.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Factor:       2,
	}
}

// normalize fills zero-valued fields with defaults so callers can override
// only the knobs they care about.
func (o RetryOptions) normalize() RetryOptions {
	defaults := DefaultRetryOptions()
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaults.MaxRetries
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaults.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaults.MaxDelay
	}
	if o.Factor <= 0 {
		o.Factor = defaults.Factor
	}
	return o
}

// backoffDelay computes min(MaxDelay, InitialDelay * Factor^(attempt-1)) for
// a 1-based attempt number.
func backoffDelay(opts RetryOptions, attempt int) time.Duration {
	delay := float64(opts.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= opts.Factor
		if delay >= float64(opts.MaxDelay) {
			return opts.MaxDelay
		}
	}
	if delay > float64(opts.MaxDelay) {
		return opts.MaxDelay
	}
	return time.Duration(delay)
}

// Retry invokes fn up to MaxRetries times with exponential backoff between
// failed attempts. The first success returns immediately with fn's value.
// After the final failed attempt the last error is returned unwrapped,
// preserving the caller's ability to branch on the underlying cause.
//
// The backoff wait honors ctx cancellation; a cancelled context aborts the
// sequence with ctx.Err() instead of sleeping out the remaining delay.
func Retry[T any](ctx context.Context, fn func(context.Context) (T, error), opts RetryOptions) (T, error) {
	opts = opts.normalize()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == opts.MaxRetries {
			break
		}

		delay := backoffDelay(opts, attempt)
		logging.Debug("Retry: Attempt %d/%d failed, backing off %s: %v",
			attempt, opts.MaxRetries, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
