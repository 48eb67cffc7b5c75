package commands

import (
	"github.com/spf13/cobra"
)

// Health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show daemon health and pending record totals",
}

// Breaker command group
var breakerCmd = &cobra.Command{
	Use:   "breaker",
	Short: "Inspect circuit breakers guarding remote dependencies",
}

// Breaker list command
var breakerLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List circuit breakers and their states",
}

func init() {
	breakerCmd.AddCommand(breakerLsCmd)
}

// GetHealthCommand returns the health command for handler assignment
func GetHealthCommand() *cobra.Command {
	return healthCmd
}

// GetBreakerCommands returns breaker commands for handler assignment
func GetBreakerCommands() *cobra.Command {
	return breakerLsCmd
}
