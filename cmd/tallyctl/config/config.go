// Package config provides configuration management for the tallyctl CLI.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/version"
)

const (
	DefaultAPIAddr = "127.0.0.1:8090" // Default daemon API address
)

// Version returns the current tallyctl CLI version from the centralized version package
var Version = version.TallyctlVersion

// Global holds the global CLI configuration
var Global struct {
	APIAddr  string // Address of the tallyd API server to connect to
	LogLevel string // Log level for CLI operations
	Timeout  int    // Connection timeout in seconds
	Output   string // Output format: table, json
}

// Entry holds the entry command configuration
var Entry struct {
	Dataset string // Destination dataset override
}

// Lookup holds the lookup command configuration
var Lookup struct {
	Context  []string // Extra key context segments
	TTLHours int      // TTL for lookup set
}

// ValidateGlobalFlags validates the global CLI flags before any command runs
func ValidateGlobalFlags(cmd *cobra.Command, args []string) error {
	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}
	if Global.Timeout < 1 {
		return fmt.Errorf("timeout must be positive, got: %d", Global.Timeout)
	}
	if Global.Output != "table" && Global.Output != "json" {
		return fmt.Errorf("invalid output format: %s (must be table or json)", Global.Output)
	}
	return nil
}
