// Package handlers provides command execution logic for the tallyctl CLI.
//
// Each handler creates an API client from global configuration, performs the
// requested daemon operation, and renders the result in the selected output
// format (aligned table for humans, JSON for scripting).
package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tallydesk/tally/cmd/tallyctl/client"
	"github.com/tallydesk/tally/cmd/tallyctl/config"
	"github.com/tallydesk/tally/cmd/tallyctl/utils"
)

// outputJSON reports whether JSON output was requested
func outputJSON() bool {
	return config.Global.Output == "json"
}

// printJSON renders any value as indented JSON on stdout
func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// newTable returns a tabwriter configured for aligned CLI output
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// HandleHealth shows daemon health and pending record totals
func HandleHealth(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	health, err := api.GetHealth()
	if err != nil {
		return err
	}

	if outputJSON() {
		return printJSON(health)
	}

	w := newTable()
	fmt.Fprintf(w, "STATUS\tVERSION\tUPTIME\tPENDING\n")
	fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", health.Status, health.Version, health.Uptime, health.PendingRecords)
	return w.Flush()
}

// HandleBatchList lists pending record counts per destination table
func HandleBatchList(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	batches, err := api.GetBatches()
	if err != nil {
		return err
	}

	if outputJSON() {
		return printJSON(batches)
	}

	if len(batches) == 0 {
		fmt.Println("No pending batches")
		return nil
	}

	w := newTable()
	fmt.Fprintf(w, "DATASET\tTABLE\tPENDING\n")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%d\n", b.Dataset, b.Table, b.Pending)
	}
	return w.Flush()
}

// HandleBatchFlush flushes all batches or one destination table
func HandleBatchFlush(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	if len(args) == 1 {
		return fmt.Errorf("flush takes either no arguments or a dataset and table")
	}

	if len(args) == 2 {
		outcome, err := api.FlushTable(args[0], args[1])
		if err != nil {
			return err
		}
		if outputJSON() {
			return printJSON(outcome)
		}
		printOutcome(args[0]+"."+args[1], *outcome)
		return nil
	}

	outcomes, err := api.FlushAll()
	if err != nil {
		return err
	}
	if outputJSON() {
		return printJSON(outcomes)
	}
	if len(outcomes) == 0 {
		fmt.Println("Nothing to flush")
		return nil
	}

	destinations := make([]string, 0, len(outcomes))
	for destination := range outcomes {
		destinations = append(destinations, destination)
	}
	sort.Strings(destinations)
	for _, destination := range destinations {
		printOutcome(destination, outcomes[destination])
	}
	return nil
}

// printOutcome renders one flush outcome as a single line
func printOutcome(destination string, outcome client.FlushOutcome) {
	switch outcome.Status {
	case "flushed":
		fmt.Printf("%s: flushed %d rows\n", destination, outcome.Rows)
	case "empty":
		fmt.Printf("%s: nothing to flush\n", destination)
	case "retained":
		fmt.Printf("%s: retained %d rows (%s)\n", destination, outcome.Rows, outcome.Error)
	default:
		fmt.Printf("%s: %s\n", destination, outcome.Status)
	}
}

// HandleBreakerList lists circuit breakers and their states
func HandleBreakerList(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	breakers, err := api.GetBreakers()
	if err != nil {
		return err
	}

	if outputJSON() {
		return printJSON(breakers)
	}

	if len(breakers) == 0 {
		fmt.Println("No breakers registered")
		return nil
	}

	w := newTable()
	fmt.Fprintf(w, "NAME\tSTATE\tFAILURES\tLAST FAILURE\n")
	for _, b := range breakers {
		lastFailure := "-"
		if !b.LastFailure.IsZero() {
			lastFailure = b.LastFailure.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.Name, b.State, b.Failures, lastFailure)
	}
	return w.Flush()
}

// HandleEntryAdd validates and queues one record from field=value arguments
func HandleEntryAdd(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	table := args[0]
	record := make(map[string]any, len(args)-1)
	for _, pair := range args[1:] {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected field=value, got %q", pair)
		}
		record[name] = value
	}

	result, err := api.AddEntry(config.Entry.Dataset, table, record)
	if err != nil {
		return err
	}

	if outputJSON() {
		return printJSON(result)
	}

	fmt.Printf("Queued entry %s for %s.%s (%d pending)\n",
		result.EntryID, result.Dataset, result.Table, result.Pending)
	if result.Flush != nil {
		printOutcome(result.Dataset+"."+result.Table, *result.Flush)
	}
	return nil
}

// HandleLookupGet reads one cache entry
func HandleLookupGet(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	result, err := api.GetLookup(args[0], args[1], config.Lookup.Context)
	if err != nil {
		return err
	}

	if outputJSON() {
		return printJSON(result)
	}

	if !result.Found {
		fmt.Printf("%s: not cached\n", result.Key)
		return nil
	}
	fmt.Printf("%s: %s\n", result.Key, string(result.Payload))
	return nil
}

// HandleLookupSet upserts one cache entry
func HandleLookupSet(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	api := client.CreateAPIClient()

	payload := json.RawMessage(args[2])
	if !json.Valid(payload) {
		return fmt.Errorf("payload must be valid JSON, got %q", args[2])
	}

	if err := api.PutLookup(args[0], args[1], config.Lookup.Context, payload, config.Lookup.TTLHours); err != nil {
		return err
	}

	if !outputJSON() {
		fmt.Println("Cached")
	}
	return nil
}
