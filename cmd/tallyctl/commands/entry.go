package commands

import (
	"github.com/spf13/cobra"
)

// Entry command group
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Enter records directly, bypassing chat",
}

// Entry add command
var entryAddCmd = &cobra.Command{
	Use:   "add <table> <field=value>...",
	Short: "Validate and queue one record for a destination table",
	Args:  cobra.MinimumNArgs(2),
	Example: `  # Add an expense to the default dataset
  tallyctl entry add expenses vendor=acme amount=12.50 txn_date=2026-03-01

  # Target a specific dataset
  tallyctl entry add invoices vendor=globex amount=900 txn_date=2026-03-01 --dataset=finance`,
}

func init() {
	entryCmd.AddCommand(entryAddCmd)
}

// GetEntryCommands returns entry commands for handler assignment
func GetEntryCommands() *cobra.Command {
	return entryAddCmd
}
