// Package main provides the entry point for the Tally CLI tool (tallyctl).
//
// This package wires the command tree to its handlers and flags. The CLI
// provides operator commands for daemon health, pending batch inspection and
// flushing, circuit breaker status, direct record entry, and lookup cache
// access.
package main

import (
	"os"

	"github.com/tallydesk/tally/cmd/tallyctl/commands"
	"github.com/tallydesk/tally/cmd/tallyctl/config"
	"github.com/tallydesk/tally/cmd/tallyctl/handlers"
)

func init() {
	// Get root command from commands package
	rootCmd := commands.RootCmd

	// Set version and validation
	rootCmd.Version = config.Version
	rootCmd.PersistentPreRunE = config.ValidateGlobalFlags

	// Setup all command structures
	commands.SetupCommands()

	// Setup global flags
	commands.SetupGlobalFlags(rootCmd, &config.Global.APIAddr, &config.Global.LogLevel,
		&config.Global.Timeout, &config.Global.Output, config.DefaultAPIAddr)

	// Setup command-specific flags
	entryAddCmd := commands.GetEntryCommands()
	entryAddCmd.Flags().StringVar(&config.Entry.Dataset, "dataset", "",
		"Destination dataset (defaults to the daemon's configured dataset)")

	lookupGetCmd, lookupSetCmd := commands.GetLookupCommands()
	lookupGetCmd.Flags().StringSliceVar(&config.Lookup.Context, "context", nil,
		"Extra cache key context segments")
	lookupSetCmd.Flags().StringSliceVar(&config.Lookup.Context, "context", nil,
		"Extra cache key context segments")
	lookupSetCmd.Flags().IntVar(&config.Lookup.TTLHours, "ttl", 0,
		"Entry TTL in hours (defaults to the daemon's configured TTL)")

	// Setup command handlers
	setupCommandHandlers()
}

// setupCommandHandlers assigns RunE functions to commands
func setupCommandHandlers() {
	commands.GetHealthCommand().RunE = handlers.HandleHealth
	commands.GetBreakerCommands().RunE = handlers.HandleBreakerList

	batchLsCmd, batchFlushCmd := commands.GetBatchCommands()
	batchLsCmd.RunE = handlers.HandleBatchList
	batchFlushCmd.RunE = handlers.HandleBatchFlush

	entryAddCmd := commands.GetEntryCommands()
	entryAddCmd.RunE = handlers.HandleEntryAdd

	lookupGetCmd, lookupSetCmd := commands.GetLookupCommands()
	lookupGetCmd.RunE = handlers.HandleLookupGet
	lookupSetCmd.RunE = handlers.HandleLookupSet
}

// main is the main entry point
func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
