package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/rules"
	"github.com/tallydesk/tally/internal/usererr"
	"github.com/tallydesk/tally/internal/validate"
	"github.com/tallydesk/tally/internal/warehouse"
)

// EntryRequest is the ingestion payload: one record bound for one destination
// table. Dataset is optional and falls back to the server default.
type EntryRequest struct {
	Dataset string         `json:"dataset,omitempty"`
	Table   string         `json:"table" binding:"required"`
	Record  map[string]any `json:"record" binding:"required"`
}

// EntryResponse reports what happened to one accepted entry: its assigned ID,
// how many records now wait for its destination, any advisory rule findings,
// and the outcome of a proactive flush when the batch-size threshold tripped.
type EntryResponse struct {
	EntryID  string          `json:"entry_id"`
	Dataset  string          `json:"dataset"`
	Table    string          `json:"table"`
	Pending  int             `json:"pending"`
	Findings []rules.Finding `json:"findings,omitempty"`
	Flush    *FlushOutcome   `json:"flush,omitempty"`
}

// FlushOutcome is the API rendering of a batch flush result. Err inside the
// batch outcome does not serialize, so the message is copied out explicitly.
type FlushOutcome struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// renderOutcome converts a batch outcome for JSON responses
func renderOutcome(outcome batch.Outcome) *FlushOutcome {
	rendered := &FlushOutcome{
		Status: string(outcome.Status),
		Rows:   outcome.Rows,
	}
	if outcome.Err != nil {
		rendered.Error = outcome.Err.Error()
	}
	return rendered
}

// ingest validates one record against its table context, checks the advisory
// rules, stamps an entry ID, and queues the record. Shared between the REST
// ingestion endpoint and the chat webhook so both surfaces behave identically.
func ingest(ctx context.Context, batcher *batch.Batcher, contexts map[string]validate.EntryContext,
	dataset, table string, record map[string]any, checker *rules.Checker) (*EntryResponse, error) {

	if err := validate.DestinationName(dataset); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	if err := validate.DestinationName(table); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}

	entryCtx, ok := contexts[table]
	if !ok {
		return nil, &validate.FieldError{Field: "table", Reason: fmt.Sprintf("unknown table %q", table)}
	}

	if err := validate.Entry(record, entryCtx); err != nil {
		return nil, err
	}

	findings := checker.Check(record)

	entryID := uuid.New().String()
	row := make(warehouse.Row, len(record)+1)
	for k, v := range record {
		row[k] = v
	}
	row["entry_id"] = entryID

	batcher.Insert(dataset, table, row)

	response := &EntryResponse{
		EntryID:  entryID,
		Dataset:  dataset,
		Table:    table,
		Pending:  batcher.Len(dataset, table),
		Findings: findings,
	}

	// Size-threshold policy: the batcher never flushes on its own, so the
	// ingest path triggers the flush when the batch is full.
	if batcher.ShouldFlush(dataset, table) {
		outcome := batcher.Flush(ctx, dataset, table)
		response.Flush = renderOutcome(outcome)
		response.Pending = batcher.Len(dataset, table)
	}

	return response, nil
}

// HandleCreateEntry ingests one record through the REST surface. Validation
// failures return 422 with per-field details plus the stable user message;
// accepted entries return 202 since the warehouse write is deferred.
func HandleCreateEntry(batcher *batch.Batcher, contexts map[string]validate.EntryContext,
	defaultDataset string, checker *rules.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  fmt.Sprintf("invalid request body: %v", err),
			})
			return
		}

		dataset := req.Dataset
		if dataset == "" {
			dataset = defaultDataset
		}

		response, err := ingest(c.Request.Context(), batcher, contexts, dataset, req.Table, req.Record, checker)
		if err != nil {
			status := http.StatusBadRequest
			if validate.IsValidationError(err) {
				status = http.StatusUnprocessableEntity
			}
			logging.Warn("API: Rejected entry for %s.%s: %v", dataset, req.Table, err)
			c.JSON(status, gin.H{
				"status":  "error",
				"error":   err.Error(),
				"message": usererr.MessageFor(err),
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "success",
			"data":   response,
		})
	}
}
