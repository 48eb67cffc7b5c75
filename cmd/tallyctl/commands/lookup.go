package commands

import (
	"github.com/spf13/cobra"
)

// Lookup command group
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Read and write the persisted lookup cache",
}

// Lookup get command
var lookupGetCmd = &cobra.Command{
	Use:   "get <namespace> <subject>",
	Short: "Read one cache entry; reports a miss without failing",
	Args:  cobra.ExactArgs(2),
}

// Lookup set command
var lookupSetCmd = &cobra.Command{
	Use:   "set <namespace> <subject> <payload-json>",
	Short: "Upsert one cache entry with a TTL in hours",
	Args:  cobra.ExactArgs(3),
}

func init() {
	lookupCmd.AddCommand(lookupGetCmd)
	lookupCmd.AddCommand(lookupSetCmd)
}

// GetLookupCommands returns lookup commands for handler assignment
func GetLookupCommands() (*cobra.Command, *cobra.Command) {
	return lookupGetCmd, lookupSetCmd
}
