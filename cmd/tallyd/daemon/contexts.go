package daemon

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tallydesk/tally/internal/validate"
)

// defaultContexts returns the built-in validation contexts used when no
// tables file is configured. Covers the two tables every deployment starts
// with; real deployments override with --tables-file.
func defaultContexts() map[string]validate.EntryContext {
	contexts := []validate.EntryContext{
		{
			Table: "expenses",
			Fields: []validate.FieldRule{
				{Name: "vendor", Kind: validate.KindText, Required: true},
				{Name: "amount", Kind: validate.KindAmount, Required: true},
				{Name: "txn_date", Kind: validate.KindDate, Required: true},
				{Name: "category", Kind: validate.KindCode, Codes: []string{"travel", "supplies", "meals", "software", "other"}},
				{Name: "notes", Kind: validate.KindText},
			},
		},
		{
			Table: "invoices",
			Fields: []validate.FieldRule{
				{Name: "vendor", Kind: validate.KindText, Required: true},
				{Name: "amount", Kind: validate.KindAmount, Required: true},
				{Name: "txn_date", Kind: validate.KindDate, Required: true},
				{Name: "due_date", Kind: validate.KindDate},
				{Name: "status", Kind: validate.KindCode, Codes: []string{"draft", "sent", "paid", "void"}},
				{Name: "notes", Kind: validate.KindText},
			},
		},
	}

	byTable := make(map[string]validate.EntryContext, len(contexts))
	for _, ctx := range contexts {
		byTable[ctx.Table] = ctx
	}
	return byTable
}

// loadContexts reads per-table validation contexts from a JSON file, falling
// back to the built-in defaults when no file is configured. The file holds an
// array of entry contexts; table names are validated since they feed batch
// keys and SQL identifiers.
func loadContexts(path string) (map[string]validate.EntryContext, error) {
	if path == "" {
		return defaultContexts(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var contexts []validate.EntryContext
	if err := json.Unmarshal(data, &contexts); err != nil {
		return nil, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("tables file %s defines no tables", path)
	}

	byTable := make(map[string]validate.EntryContext, len(contexts))
	for _, ctx := range contexts {
		if err := validate.DestinationName(ctx.Table); err != nil {
			return nil, fmt.Errorf("invalid table in tables file: %w", err)
		}
		if _, dup := byTable[ctx.Table]; dup {
			return nil, fmt.Errorf("duplicate table %q in tables file", ctx.Table)
		}
		byTable[ctx.Table] = ctx
	}
	return byTable, nil
}
