// Package warehouse provides the remote storage client used by the batcher and
// the lookup cache. This file implements the production Postgres client where
// a warehouse "dataset" maps to a Postgres schema.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tallydesk/tally/internal/logging"
)

// PostgresClient implements Client on top of database/sql with the lib/pq
// driver. Bulk inserts run inside a single transaction so a failed batch
// leaves no partial rows behind.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient wraps an already-opened *sql.DB. Ownership of the handle
// stays with the caller; Close is still available for daemon shutdown paths.
func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

// Open connects to the warehouse using a Postgres DSN and verifies the
// connection before returning. Connection pool limits are tuned for the
// low-concurrency ingest workload rather than high fan-out query traffic.
func Open(ctx context.Context, dsn string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	logging.Info("Warehouse: Connected to Postgres backend")
	return &PostgresClient{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *PostgresClient) Close() error {
	return c.db.Close()
}

// InsertRows bulk-inserts rows into dataset.table as one multi-row INSERT in
// a single transaction. Rows are bound in the order provided so the batch
// lands in submission order. Columns are the sorted union of all row keys;
// rows missing a column bind NULL for it.
func (c *PostgresClient) InsertRows(ctx context.Context, dataset, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := collectColumns(rows)
	stmt, args := buildInsertStatement(dataset, table, columns, rows)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin warehouse transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert %d rows into %s.%s: %w", len(rows), dataset, table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert into %s.%s: %w", dataset, table, err)
	}

	logging.Debug("Warehouse: Inserted %d rows into %s.%s", len(rows), dataset, table)
	return nil
}

// Query executes a parameterized query against the warehouse.
func (c *PostgresClient) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// Exec executes a parameterized statement that returns no rows.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.db.ExecContext(ctx, query, args...)
	return err
}

// collectColumns returns the sorted union of column names across all rows.
// Sorting keeps the generated SQL deterministic for identical batches.
func collectColumns(rows []Row) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			seen[col] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// buildInsertStatement renders a multi-row INSERT with positional parameters
// for the given columns and rows. Identifiers are quoted via pq to keep
// user-supplied table names from breaking the statement.
func buildInsertStatement(dataset, table string, columns []string, rows []Row) (string, []any) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s.%s (%s) VALUES ",
		pq.QuoteIdentifier(dataset), pq.QuoteIdentifier(table), strings.Join(quoted, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	placeholder := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, col := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", placeholder)
			placeholder++

			if val, ok := row[col]; ok {
				args = append(args, val)
			} else {
				args = append(args, nil)
			}
		}
		sb.WriteString(")")
	}

	return sb.String(), args
}
