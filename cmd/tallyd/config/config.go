// Package config provides configuration management for the Tally daemon.
//
// This package implements the configuration system for tallyd including the
// API bind address, warehouse connection settings, cache backend selection,
// batching policy, and chat-platform credentials. It provides centralized
// configuration state populated from flags with environment variable
// overrides for secrets that should not appear on the command line.
//
// CONFIGURATION SOURCES:
//   - Flags: every setting is flag-addressable for explicit deployments
//   - Environment: TALLY_WAREHOUSE_DSN and TALLY_BOT_TOKEN override their
//     flag counterparts so credentials stay out of process listings
//   - Defaults: internal/config supplies service-wide default values
package config

import (
	"os"

	configDefaults "github.com/tallydesk/tally/internal/config"
)

const (
	// DefaultAPI is the default HTTP API bind address
	DefaultAPI = configDefaults.DefaultBindAddr + ":8090"

	DefaultLogLevel = configDefaults.DefaultLogLevel

	// DefaultCacheTable is the warehouse table backing the lookup cache
	DefaultCacheTable = "lookup_cache"
)

// EnvWarehouseDSN and EnvBotToken are the environment overrides for secrets
const (
	EnvWarehouseDSN = "TALLY_WAREHOUSE_DSN"
	EnvBotToken     = "TALLY_BOT_TOKEN"
)

// Config holds all daemon configuration values
type Config struct {
	APIAddr string // HTTP API bind address (host:port)
	APIPort int    // HTTP API port (derived from APIAddr)

	WarehouseDSN string // Postgres DSN for the data warehouse
	Dataset      string // Default dataset chat entries land in

	CacheBackend string // Lookup cache backend: warehouse, redis, or memory
	CacheTable   string // Warehouse table for the "warehouse" backend
	RedisAddr    string // Redis address for the "redis" backend

	MaxBatchSize  int // Batch-size threshold for proactive flushes
	FlushInterval int // Periodic flush interval in seconds

	BotURL     string // Chat platform base URL; empty disables replies
	BotToken   string // Chat platform bot token
	BotTimeout int    // Chat platform request timeout in seconds

	TablesFile string // Optional JSON file with per-table validation contexts
	LogLevel   string // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string // Optional log file path
}

// Global configuration instance
var Global Config

// InitializeConfig applies environment variable overrides after flags are
// parsed. Environment wins over flags for secrets so deployments can keep
// credentials out of unit files and shell history.
func InitializeConfig() {
	if dsn := os.Getenv(EnvWarehouseDSN); dsn != "" {
		Global.WarehouseDSN = dsn
	}
	if token := os.Getenv(EnvBotToken); token != "" {
		Global.BotToken = token
	}
}
