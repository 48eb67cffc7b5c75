package commands

import (
	"github.com/spf13/cobra"
)

// Batch command group
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect and flush pending write batches",
}

// Batch list command
var batchLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List pending record counts per destination table",
}

// Batch flush command
var batchFlushCmd = &cobra.Command{
	Use:   "flush [dataset table]",
	Short: "Flush all pending batches, or one destination table",
	Args:  cobra.RangeArgs(0, 2),
}

func init() {
	batchCmd.AddCommand(batchLsCmd)
	batchCmd.AddCommand(batchFlushCmd)
}

// GetBatchCommands returns batch commands for handler assignment
func GetBatchCommands() (*cobra.Command, *cobra.Command) {
	return batchLsCmd, batchFlushCmd
}
