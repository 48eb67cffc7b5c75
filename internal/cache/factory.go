// Package cache provides the persisted lookup cache. This file implements
// the backend factory that builds a Store from configuration.
package cache

import (
	"errors"
	"fmt"

	"github.com/tallydesk/tally/internal/warehouse"
)

// FactoryOptions carries the dependencies a backend may need. Only the
// fields for the selected backend are consulted.
type FactoryOptions struct {
	// Warehouse client plus destination for the "warehouse" backend.
	Warehouse warehouse.Client
	Dataset   string
	Table     string

	// RedisAddr for the "redis" backend, e.g. "localhost:6379".
	RedisAddr string
	// RedisPrefix namespaces keys inside Redis; defaults to "lookup".
	RedisPrefix string
}

// BuildStore constructs a cache store for the named backend. Supported
// backends:
//   - "warehouse": SQL-backed table in the warehouse (production default)
//   - "redis": Redis keys with native TTLs
//   - "memory": process-local map for tests and dependency-free runs
func BuildStore(backend string, opts FactoryOptions) (Store, error) {
	switch backend {
	case "warehouse":
		if opts.Warehouse == nil {
			return nil, errors.New("warehouse cache backend requires a warehouse client")
		}
		table := opts.Table
		if table == "" {
			table = "lookup_cache"
		}
		return NewWarehouseStore(opts.Warehouse, opts.Dataset, table), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("redis cache backend requires an address")
		}
		return DialRedis(opts.RedisAddr, opts.RedisPrefix), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", backend)
	}
}
