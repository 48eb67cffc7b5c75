package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/tallydesk/tally/internal/resilience"
)

// flakyClient fails InsertRows a set number of times before succeeding
type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) InsertRows(ctx context.Context, dataset, table string, rows []Row) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset")
	}
	return nil
}

func (f *flakyClient) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *flakyClient) Exec(ctx context.Context, query string, args ...any) error {
	return errors.New("not implemented")
}

// fastRetry keeps backoff negligible so tests run quickly
func fastRetry() resilience.RetryOptions {
	return resilience.RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Factor:       2,
	}
}

// TestResilientClient_RetriesInsert tests that transient insert failures are
// retried and succeed without tripping the breaker
func TestResilientClient_RetriesInsert(t *testing.T) {
	inner := &flakyClient{failures: 2}
	breaker := resilience.NewCircuitBreaker("warehouse", resilience.DefaultBreakerOptions())
	client := NewResilientClient(inner, breaker, fastRetry())

	err := client.InsertRows(context.Background(), "ops", "expenses", []Row{{"vendor": "acme"}})
	if err != nil {
		t.Fatalf("Expected insert to succeed after retries, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", inner.calls)
	}

	status := breaker.Status()
	if status.State != resilience.StateClosed || status.Failures != 0 {
		t.Errorf("Expected closed breaker after eventual success, got %+v", status)
	}
}

// TestResilientClient_ExhaustedRetriesCountOnce tests that a fully failed
// insert registers one breaker failure, not one per attempt
func TestResilientClient_ExhaustedRetriesCountOnce(t *testing.T) {
	inner := &flakyClient{failures: 100}
	breaker := resilience.NewCircuitBreaker("warehouse", resilience.DefaultBreakerOptions())
	client := NewResilientClient(inner, breaker, fastRetry())

	err := client.InsertRows(context.Background(), "ops", "expenses", []Row{{"vendor": "acme"}})
	if err == nil {
		t.Fatal("Expected insert to fail after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", inner.calls)
	}
	if breaker.Status().Failures != 1 {
		t.Errorf("Expected one breaker failure for the whole retry run, got %d", breaker.Status().Failures)
	}
}

// TestResilientClient_OpenBreakerShortCircuits tests that an open breaker
// refuses inserts without calling the warehouse
func TestResilientClient_OpenBreakerShortCircuits(t *testing.T) {
	inner := &flakyClient{failures: 100}
	breaker := resilience.NewCircuitBreaker("warehouse", resilience.BreakerOptions{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	client := NewResilientClient(inner, breaker, fastRetry())

	// Trip the breaker
	if err := client.InsertRows(context.Background(), "ops", "expenses", nil); err == nil {
		t.Fatal("Expected first insert to fail")
	}
	callsAfterTrip := inner.calls

	err := client.InsertRows(context.Background(), "ops", "expenses", nil)
	var openErr *resilience.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Expected OpenError from open breaker, got %v", err)
	}
	if inner.calls != callsAfterTrip {
		t.Errorf("Expected no warehouse calls while open, got %d extra", inner.calls-callsAfterTrip)
	}
}
