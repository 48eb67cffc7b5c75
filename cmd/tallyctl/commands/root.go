// Package commands provides the command tree implementation for tallyctl.
//
// This package defines the hierarchical command structure for the Tally CLI
// tool, organized into resource-based groups matching the daemon's operational
// surface:
//
//   - health:  Daemon health and pending record totals
//   - batch:   Pending batch inspection and flush operations (ls, flush)
//   - breaker: Circuit breaker status (ls)
//   - entry:   Record ingestion from the command line (add)
//   - lookup:  Cache reads and upserts (get, set)
//
// All commands follow consistent patterns with standardized flag handling,
// error messages, and output formatting.
package commands

import (
	"github.com/spf13/cobra"
)

// Root command
var RootCmd = &cobra.Command{
	Use:   "tallyctl",
	Short: "CLI tool for the Tally chat-driven data entry daemon",
	Long: `Tally CLI (tallyctl) is a command-line tool for operating a tallyd
daemon: inspecting pending batches, forcing flushes, checking circuit
breakers, and entering or looking up records without going through chat.`,
	SilenceUsage: true,
	Example: `  # Show daemon health
  tallyctl health

  # List pending batches
  tallyctl batch ls

  # Flush everything, or one destination
  tallyctl batch flush
  tallyctl batch flush ops expenses

  # Check circuit breakers
  tallyctl breaker ls

  # Add an expense from the command line
  tallyctl entry add expenses vendor=acme amount=12.50 txn_date=2026-03-01

  # Read and write the lookup cache
  tallyctl lookup get vendor acme --context=billing
  tallyctl lookup set vendor acme '{"terms":"net30"}' --ttl=12

  # Connect to a remote daemon, JSON output
  tallyctl --api=10.0.0.5:8090 -o json batch ls`,
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	RootCmd.AddCommand(healthCmd)
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(breakerCmd)
	RootCmd.AddCommand(entryCmd)
	RootCmd.AddCommand(lookupCmd)
}

// SetupGlobalFlags configures all global persistent flags
func SetupGlobalFlags(rootCmd *cobra.Command, apiAddrPtr *string, logLevelPtr *string,
	timeoutPtr *int, outputPtr *string, defaultAPIAddr string) {
	rootCmd.PersistentFlags().StringVar(apiAddrPtr, "api", defaultAPIAddr,
		"Daemon API server address")
	rootCmd.PersistentFlags().StringVar(logLevelPtr, "log-level", "ERROR",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().IntVar(timeoutPtr, "timeout", 8,
		"Connection timeout in seconds")
	rootCmd.PersistentFlags().StringVarP(outputPtr, "output", "o", "table",
		"Output format: table, json")
}
