// Package main implements the Tally daemon (tallyd).
// Tally turns chat messages into validated, batched warehouse records for
// business operations teams: expenses, invoices, and other structured entry.
package main

import (
	"os"

	"github.com/tallydesk/tally/cmd/tallyd/commands"
)

// Main entry point
func main() {
	commands.SetupCommands()

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
