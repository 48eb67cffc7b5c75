package warehouse

import (
	"context"
	"database/sql"

	"github.com/tallydesk/tally/internal/resilience"
)

// ResilientClient wraps a warehouse client with the standard retry and
// circuit-breaker policy. Writes retry with exponential backoff inside the
// breaker, so a run of failed attempts counts once against the breaker and a
// warehouse outage short-circuits subsequent calls instead of piling up
// doomed retries.
//
// Reads are wrapped by the breaker only: a failed read is cheap to repeat at
// the call site, and retrying here would hold result rows open across delays.
type ResilientClient struct {
	inner   Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryOptions
}

// NewResilientClient wraps inner with the given breaker and retry policy.
// Zero-valued retry options fall back to the package defaults.
func NewResilientClient(inner Client, breaker *resilience.CircuitBreaker, retry resilience.RetryOptions) *ResilientClient {
	return &ResilientClient{
		inner:   inner,
		breaker: breaker,
		retry:   retry,
	}
}

// InsertRows submits the bulk insert through the breaker, retrying failed
// attempts with backoff. A breaker in cooldown returns *resilience.OpenError
// without touching the warehouse.
func (c *ResilientClient) InsertRows(ctx context.Context, dataset, table string, rows []Row) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		_, err := resilience.Retry(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.inner.InsertRows(ctx, dataset, table, rows)
		}, c.retry)
		return err
	})
}

// Query runs a read through the breaker without retries.
func (c *ResilientClient) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return resilience.Execute(c.breaker, ctx, func(ctx context.Context) (*sql.Rows, error) {
		return c.inner.Query(ctx, query, args...)
	})
}

// Exec runs a statement through the breaker without retries.
func (c *ResilientClient) Exec(ctx context.Context, query string, args ...any) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.inner.Exec(ctx, query, args...)
	})
}
