// Package commands contains Cobra CLI command definitions for tallyd.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/tallydesk/tally/cmd/tallyd/config"
	configDefaults "github.com/tallydesk/tally/internal/config"
)

// SetupFlags configures all command line flags for the daemon
func SetupFlags(cmd *cobra.Command) {
	// API flags
	cmd.Flags().StringVar(&config.Global.APIAddr, "api", config.DefaultAPI,
		"Address and port for the HTTP API and chat webhook (e.g., "+config.DefaultAPI+")")

	// Warehouse flags
	cmd.Flags().StringVar(&config.Global.WarehouseDSN, "warehouse-dsn", "",
		"Postgres DSN for the data warehouse\n"+
			"Can also be set via "+config.EnvWarehouseDSN+" (recommended for credentials)")
	cmd.Flags().StringVar(&config.Global.Dataset, "dataset", configDefaults.DefaultDataset,
		"Default warehouse dataset chat entries land in")

	// Cache flags
	cmd.Flags().StringVar(&config.Global.CacheBackend, "cache-backend", configDefaults.DefaultCacheBackend,
		"Lookup cache backend: warehouse, redis, or memory")
	cmd.Flags().StringVar(&config.Global.CacheTable, "cache-table", config.DefaultCacheTable,
		"Warehouse table backing the lookup cache (warehouse backend only)")
	cmd.Flags().StringVar(&config.Global.RedisAddr, "redis", "",
		"Redis address for the redis cache backend (e.g., localhost:6379)")

	// Batching flags
	cmd.Flags().IntVar(&config.Global.MaxBatchSize, "max-batch-size", configDefaults.DefaultMaxBatchSize,
		"Batch-size threshold that triggers a proactive flush for a destination table")
	cmd.Flags().IntVar(&config.Global.FlushInterval, "flush-interval", configDefaults.DefaultFlushInterval,
		"Seconds between periodic flushes of all pending batches")

	// Chat platform flags
	cmd.Flags().StringVar(&config.Global.BotURL, "bot-url", "",
		"Chat platform base URL for replies; empty disables outbound messages")
	cmd.Flags().StringVar(&config.Global.BotToken, "bot-token", "",
		"Chat platform bot token\n"+
			"Can also be set via "+config.EnvBotToken+" (recommended)")
	cmd.Flags().IntVar(&config.Global.BotTimeout, "bot-timeout", 10,
		"Chat platform request timeout in seconds")

	// Validation context flags
	cmd.Flags().StringVar(&config.Global.TablesFile, "tables-file", "",
		"JSON file describing per-table validation contexts (defaults to built-in tables)")

	// Operational flags
	cmd.Flags().StringVar(&config.Global.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	cmd.Flags().StringVar(&config.Global.LogFile, "log-file", "",
		"Log file path (defaults to stdout)")
}
