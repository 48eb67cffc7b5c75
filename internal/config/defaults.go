// Package config provides common default configuration values shared across
// Tally components (batcher, cache, API server, warehouse). This centralizes
// configuration management and ensures consistency across the service.
package config

const (
	// DefaultBindAddr is the default bind address for the HTTP API
	// Using 0.0.0.0 allows binding to all available network interfaces
	DefaultBindAddr = "0.0.0.0"

	// DefaultAPIPort is the default port for the HTTP API and webhook surface
	DefaultAPIPort = 8090

	// DefaultLogLevel is the default log level for all components
	// INFO provides good balance of visibility without verbose debug output
	DefaultLogLevel = "INFO"

	// DefaultMaxBatchSize is the batch-size threshold at which callers should
	// proactively flush a destination table. The batcher itself never
	// self-triggers on this value; it is a policy hook for the host.
	DefaultMaxBatchSize = 100

	// DefaultFlushInterval is how often the daemon flushes all pending batches
	// in seconds. Acts as the external flush scheduler for the batcher.
	DefaultFlushInterval = 30

	// DefaultCacheTTLHours is the default time-to-live for lookup cache
	// entries when callers do not supply one.
	DefaultCacheTTLHours = 24

	// DefaultCacheBackend selects the lookup cache store implementation.
	// Supported: "warehouse" (SQL-backed) and "redis".
	DefaultCacheBackend = "warehouse"

	// DefaultDataset is the warehouse dataset chat entries land in when no
	// dataset is named explicitly.
	DefaultDataset = "ops"
)
