// Package batch provides micro-batched warehouse writes for chat-driven data
// entry. This file defines the Prometheus counters that track batch flow so
// retained-after-error rows are visible to operators instead of silently
// accumulating in memory.
package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_batch_records_queued_total",
		Help: "Records accepted into in-memory batches per destination table.",
	}, []string{"table"})

	rowsFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_batch_rows_flushed_total",
		Help: "Rows successfully bulk-inserted into the warehouse per destination table.",
	}, []string{"table"})

	rowsRetained = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_batch_rows_retained_total",
		Help: "Rows kept in memory after a failed flush per destination table.",
	}, []string{"table"})

	flushErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_batch_flush_errors_total",
		Help: "Failed flush attempts per destination table.",
	}, []string{"table"})
)
