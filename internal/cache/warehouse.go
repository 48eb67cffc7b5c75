// Package cache provides the persisted lookup cache. This file implements
// the warehouse-backed store, where entries live in a cache table and the
// "not yet expired" predicate runs inside the SQL query itself.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/warehouse"
)

// WarehouseStore persists cache entries in a warehouse table with columns
// cache_key, payload, expires_at, created_at, hit_count, and last_accessed.
// The expiry filter is part of the point-lookup query, so the storage clock
// is the only source of truth for staleness.
type WarehouseStore struct {
	client  warehouse.Client
	dataset string
	table   string
}

// NewWarehouseStore creates a store reading and writing dataset.table
// through the given warehouse client.
func NewWarehouseStore(client warehouse.Client, dataset, table string) *WarehouseStore {
	return &WarehouseStore{client: client, dataset: dataset, table: table}
}

// qualifiedTable returns the quoted dataset.table identifier for statements.
func (s *WarehouseStore) qualifiedTable() string {
	return pq.QuoteIdentifier(s.dataset) + "." + pq.QuoteIdentifier(s.table)
}

// Get runs a point lookup filtered by key and by expiry at query time.
// Returns the payload if exactly one live row matches, nil otherwise.
// Hit bookkeeping (hit_count, last_accessed) is updated best-effort; a
// bookkeeping failure never fails the read.
func (s *WarehouseStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	query := fmt.Sprintf(
		"SELECT payload FROM %s WHERE cache_key = $1 AND expires_at > NOW()",
		s.qualifiedTable())

	rows, err := s.client.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %q failed: %w", key, err)
	}
	defer rows.Close()

	var payload json.RawMessage
	matches := 0
	for rows.Next() {
		matches++
		if matches > 1 {
			break
		}
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("cache scan for %q failed: %w", key, err)
		}
		payload = json.RawMessage(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache iteration for %q failed: %w", key, err)
	}

	if matches != 1 {
		recordMiss("warehouse")
		return nil, nil
	}

	recordHit("warehouse")
	s.recordAccess(ctx, key)
	return payload, nil
}

// recordAccess bumps hit_count and last_accessed for observability.
// Failures are logged and dropped; bookkeeping must not affect reads.
func (s *WarehouseStore) recordAccess(ctx context.Context, key string) {
	stmt := fmt.Sprintf(
		"UPDATE %s SET hit_count = hit_count + 1, last_accessed = NOW() WHERE cache_key = $1",
		s.qualifiedTable())
	if err := s.client.Exec(ctx, stmt, key); err != nil {
		logging.Debug("Cache: Hit bookkeeping for %q failed: %v", key, err)
	}
}

// Put upserts the entry keyed on cache_key, computing the new expiry from
// the storage clock. An existing row with the same key is overwritten
// (last-write-wins); created_at survives the overwrite.
func (s *WarehouseStore) Put(ctx context.Context, key string, payload any, ttlHours int) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize cache payload for %q: %w", key, err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (cache_key, payload, expires_at, created_at)
VALUES ($1, $2, NOW() + ($3 * INTERVAL '1 hour'), NOW())
ON CONFLICT (cache_key) DO UPDATE
SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
		s.qualifiedTable())

	if err := s.client.Exec(ctx, stmt, key, []byte(raw), ttlHours); err != nil {
		return fmt.Errorf("cache upsert for %q failed: %w", key, err)
	}

	logging.Debug("Cache: Stored %q with TTL %dh", key, ttlHours)
	return nil
}
