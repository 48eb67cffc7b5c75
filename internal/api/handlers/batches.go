package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/validate"
)

// BatchSize reports the pending record count for one destination table
type BatchSize struct {
	Dataset string `json:"dataset"`
	Table   string `json:"table"`
	Pending int    `json:"pending"`
}

// HandleBatchSizes returns pending record counts for every destination table
// with at least one queued record
func HandleBatchSizes(batcher *batch.Batcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		sizes := batcher.Sizes()

		batches := make([]BatchSize, 0, len(sizes))
		for key, pending := range sizes {
			batches = append(batches, BatchSize{
				Dataset: key.Dataset,
				Table:   key.Table,
				Pending: pending,
			})
		}

		// Sort by destination for consistent output
		sort.Slice(batches, func(i, j int) bool {
			if batches[i].Dataset != batches[j].Dataset {
				return batches[i].Dataset < batches[j].Dataset
			}
			return batches[i].Table < batches[j].Table
		})

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   batches,
			"count":  len(batches),
		})
	}
}

// HandleFlushAll flushes every pending batch independently and reports each
// destination's outcome. Responds 200 even when some destinations retained
// their rows; per-destination status carries the detail.
func HandleFlushAll(batcher *batch.Batcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcomes := batcher.FlushAll(c.Request.Context())

		rendered := make(map[string]*FlushOutcome, len(outcomes))
		retained := 0
		for key, outcome := range outcomes {
			rendered[key.String()] = renderOutcome(outcome)
			if outcome.Status == batch.StatusRetained {
				retained++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"data":     rendered,
			"count":    len(rendered),
			"retained": retained,
		})
	}
}

// HandleFlushTable flushes one destination table. A retained batch responds
// 502 because the warehouse call behind the flush failed; empty and flushed
// outcomes respond 200.
func HandleFlushTable(batcher *batch.Batcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		dataset := c.Param("dataset")
		table := c.Param("table")

		if err := validate.DestinationName(dataset); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
			return
		}
		if err := validate.DestinationName(table); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
			return
		}

		outcome := batcher.Flush(c.Request.Context(), dataset, table)

		status := http.StatusOK
		if outcome.Status == batch.StatusRetained {
			status = http.StatusBadGateway
		}

		c.JSON(status, gin.H{
			"status": "success",
			"data":   renderOutcome(outcome),
		})
	}
}
