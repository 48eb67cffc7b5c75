// Package commands provides the CLI command structure for the Tally daemon.
//
// This package implements the root command for tallyd, the chat-driven
// data-entry daemon. It manages the CLI interface for warehouse connection,
// cache selection, batching policy, and operational parameters through a flag
// system and a pre-run validation pipeline.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tallydesk/tally/cmd/tallyd/config"
	"github.com/tallydesk/tally/cmd/tallyd/daemon"
	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/version"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists.
// Called during daemon shutdown to ensure proper cleanup.
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Log to stderr since we're cleaning up the log file
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for the Tally daemon
var RootCmd = &cobra.Command{
	Use:   "tallyd",
	Short: "Chat-driven data entry daemon for business operations",
	Long: `Tally daemon (tallyd) turns chat messages into validated warehouse records.

Entries arrive through a chat-platform webhook or the REST API, are validated
against per-table rules, queued in per-destination batches, and written to the
warehouse in bulk with retry and circuit-breaker protection.`,
	Version:      version.TallydVersion,
	SilenceUsage: true, // Don't show usage on errors
	Example: `  # Start with warehouse credentials from the environment
  TALLY_WAREHOUSE_DSN=postgres://tally@db/warehouse tallyd

  # Explicit configuration with chat replies enabled
  tallyd --api=0.0.0.0:8090 --warehouse-dsn=postgres://tally@db/warehouse \
    --bot-url=https://chat.example.com --bot-token=xoxb-...

  # Redis-backed lookup cache and a faster flush cadence
  tallyd --cache-backend=redis --redis=localhost:6379 --flush-interval=10`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup log file redirection if --log-file was specified
		if config.Global.LogFile != "" {
			// Create parent directories if they don't exist
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			// Open/create log file with append mode
			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}

			// Redirect all logging to the file
			logging.SetOutput(logFileHandle)
		}

		// Configure logging level immediately after flags are parsed to prevent
		// INFO logs during config initialization when ERROR level is requested
		logging.SetLevel(config.Global.LogLevel)
		// Apply environment variable overrides for credentials
		config.InitializeConfig()
		// Validate configuration and ensure log file cleanup on validation failure
		if err := config.ValidateConfig(); err != nil {
			CleanupLogFile()
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ensure log file cleanup on exit
		defer CleanupLogFile()
		return daemon.Run()
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	// Setup all flags
	SetupFlags(RootCmd)

	// Currently only has the root command
	// Future subcommands can be added here
}
