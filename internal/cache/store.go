// Package cache provides the persisted lookup cache. This file defines the
// store contract shared by the warehouse, Redis, and in-memory backends.
package cache

import (
	"context"
	"encoding/json"
)

// Store is the backend-agnostic lookup cache surface. Implementations must
// guarantee that Get never returns a payload whose expiry is at or before
// the read time; the expiry comparison belongs to the storage layer.
//
// A cache miss is (nil, nil), never an error. Storage-layer failures
// propagate to the caller, unlike the batcher's swallow-on-error policy:
// the caller decides whether to retry, typically via resilience.Retry.
type Store interface {
	// Get returns the serialized payload for key if exactly one live entry
	// matches, or nil on a miss.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Put upserts the payload under key with an expiry of now + ttlHours.
	// Concurrent writers to the same key race at the storage layer;
	// last-write-wins is acceptable.
	Put(ctx context.Context, key string, payload any, ttlHours int) error
}

// marshalPayload serializes a caller payload for storage. Raw JSON passes
// through untouched so round-trips are byte-exact.
func marshalPayload(payload any) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
