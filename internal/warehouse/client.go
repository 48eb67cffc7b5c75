// Package warehouse provides the remote storage client used by the batcher and
// the lookup cache. The client exposes exactly the two operations the rest of
// the service depends on: bulk row inserts into a destination table and
// parameterized query execution.
//
// CLIENT CONTRACT:
//   - InsertRows submits a whole batch as a single bulk insert and returns a
//     structured error on failure; partial writes are rolled back
//   - Query/Exec run parameterized statements for point lookups and upserts
//
// The concrete SQL dialect is an implementation detail of the callers; the
// interface only promises parameter binding and row iteration. Production
// deployments use the Postgres implementation in this package, tests inject
// in-memory fakes.
package warehouse

import (
	"context"
	"database/sql"
)

// Row is a single record destined for a warehouse table, mapping column name
// to value. Values must be types the SQL driver can bind directly.
type Row map[string]any

// Client is the minimal remote-storage surface consumed by the batcher and
// the lookup cache. Implementations must be safe for concurrent use.
type Client interface {
	// InsertRows bulk-inserts rows into dataset.table in the given order as a
	// single atomic operation. An empty rows slice is a no-op.
	InsertRows(ctx context.Context, dataset, table string, rows []Row) error

	// Query executes a parameterized query and returns the resulting rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Exec executes a parameterized statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error
}
