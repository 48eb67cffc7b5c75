// Package batch provides micro-batched warehouse writes for chat-driven data
// entry, decoupling the rate of per-message insert requests from the rate of
// expensive remote bulk-insert calls.
//
// BATCHING MODEL:
// Records accumulate in memory per destination (dataset, table) and are
// submitted to the warehouse as one bulk insert per flush, in insertion order.
// Flush failures never raise to the caller: the error is reported inside an
// explicit Outcome and the batch is retained in memory for a later attempt,
// favoring availability of the calling chat workflow over strict delivery.
//
// FLUSH TRIGGERING:
// The batcher never flushes on its own. Callers consult ShouldFlush after an
// insert, and the daemon runs a periodic FlushAll ticker as the external
// flush scheduler. Reset exists only so tests can wipe state between runs.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/utils"
	"github.com/tallydesk/tally/internal/warehouse"
)

// TableKey identifies one destination table inside a warehouse dataset.
// Used as the map key for per-table batches.
type TableKey struct {
	Dataset string `json:"dataset"`
	Table   string `json:"table"`
}

// String returns the key in "dataset.table" form for logs and API responses.
func (k TableKey) String() string {
	return k.Dataset + "." + k.Table
}

// Status describes the result of a flush attempt for one table.
type Status string

const (
	// StatusFlushed means the whole batch was submitted and cleared.
	StatusFlushed Status = "flushed"
	// StatusEmpty means there was nothing to flush; no remote call was made.
	StatusEmpty Status = "empty"
	// StatusRetained means the remote call failed and the batch was kept
	// in memory for a later flush attempt.
	StatusRetained Status = "retained"
)

// Outcome is the explicit flush policy result. A failed remote call surfaces
// here as StatusRetained with Err set rather than as a returned error, so
// callers can decide whether to surface or re-attempt without a throw
// interrupting the chat workflow.
type Outcome struct {
	Status Status `json:"status"`
	Rows   int    `json:"rows"`
	Err    error  `json:"-"`
}

// Batcher accumulates records per destination table and flushes each table as
// a single bulk insert. Instances are explicitly constructed and injectable;
// there is no package-level batch state, so tests and parallel components can
// hold isolated batchers.
//
// Safe for concurrent use. Insert and the flush take-then-restore sequence
// are atomic under one mutex, so concurrent callers cannot lose or duplicate
// records.
type Batcher struct {
	mu      sync.Mutex
	batches map[TableKey][]warehouse.Row

	client warehouse.Client
	config *Config

	// now is injectable for timestamp-stamping tests.
	now func() time.Time
}

// New creates a batcher that flushes through the given warehouse client.
// A nil config uses defaults.
func New(client warehouse.Client, config *Config) *Batcher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Batcher{
		batches: make(map[TableKey][]warehouse.Row),
		client:  client,
		config:  config,
		now:     time.Now,
	}
}

// Insert appends a record to the in-memory batch for (dataset, table) after
// stamping missing created_at/updated_at timestamps. Timestamps already
// present on the record are never overwritten. The record is copied, so the
// caller may reuse its map. No network call is made.
func (b *Batcher) Insert(dataset, table string, record warehouse.Row) {
	stamped := make(warehouse.Row, len(record)+2)
	for k, v := range record {
		stamped[k] = v
	}

	now := b.now()
	if _, ok := stamped["created_at"]; !ok {
		stamped["created_at"] = now
	}
	if _, ok := stamped["updated_at"]; !ok {
		stamped["updated_at"] = now
	}

	key := TableKey{Dataset: dataset, Table: table}

	b.mu.Lock()
	b.batches[key] = append(b.batches[key], stamped)
	size := len(b.batches[key])
	b.mu.Unlock()

	recordsQueued.WithLabelValues(key.String()).Inc()
	logging.Debug("Batch: Queued record for %s (pending: %d)", key, size)
}

// Len returns the number of pending records for (dataset, table).
func (b *Batcher) Len(dataset, table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches[TableKey{Dataset: dataset, Table: table}])
}

// ShouldFlush reports whether the batch for (dataset, table) has reached the
// configured MaxBatchSize threshold. Policy hook only; the caller decides
// whether to act on it.
func (b *Batcher) ShouldFlush(dataset, table string) bool {
	return b.Len(dataset, table) >= b.config.MaxBatchSize
}

// Sizes returns a snapshot of pending record counts per destination table
// for observability endpoints.
func (b *Batcher) Sizes() map[TableKey]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	sizes := make(map[TableKey]int, len(b.batches))
	for key, rows := range b.batches {
		sizes[key] = len(rows)
	}
	return sizes
}

// Flush submits the whole batch for (dataset, table) as one bulk insert in
// insertion order. An empty batch returns StatusEmpty without contacting the
// warehouse. On success the batch is cleared; on failure the error is logged,
// the rows are restored ahead of anything inserted meanwhile, and the outcome
// reports StatusRetained with the error attached. Flush never panics or
// returns a Go error directly.
func (b *Batcher) Flush(ctx context.Context, dataset, table string) Outcome {
	key := TableKey{Dataset: dataset, Table: table}

	b.mu.Lock()
	rows := b.batches[key]
	if len(rows) == 0 {
		b.mu.Unlock()
		return Outcome{Status: StatusEmpty}
	}
	// Take the batch out of the map so inserts during the remote call start
	// a fresh sequence instead of mutating the one being submitted.
	delete(b.batches, key)
	b.mu.Unlock()

	flushID, _ := utils.GenerateID()

	if err := b.client.InsertRows(ctx, dataset, table, rows); err != nil {
		// Restore the failed rows ahead of any records inserted while the
		// remote call was in flight, preserving submission order.
		b.mu.Lock()
		b.batches[key] = append(rows, b.batches[key]...)
		b.mu.Unlock()

		flushErrors.WithLabelValues(key.String()).Inc()
		rowsRetained.WithLabelValues(key.String()).Add(float64(len(rows)))
		logging.Error("Batch: Flush %s for %s failed, retaining %d rows: %v",
			flushID, key, len(rows), err)
		return Outcome{Status: StatusRetained, Rows: len(rows), Err: err}
	}

	rowsFlushed.WithLabelValues(key.String()).Add(float64(len(rows)))
	logging.Info("Batch: Flush %s submitted %d rows to %s", flushID, len(rows), key)
	return Outcome{Status: StatusFlushed, Rows: len(rows)}
}

// FlushAll flushes every currently non-empty batch independently. One
// destination's failure does not block flushing of the others; each table's
// outcome is reported under its key.
func (b *Batcher) FlushAll(ctx context.Context) map[TableKey]Outcome {
	b.mu.Lock()
	keys := make([]TableKey, 0, len(b.batches))
	for key := range b.batches {
		keys = append(keys, key)
	}
	b.mu.Unlock()

	outcomes := make(map[TableKey]Outcome, len(keys))
	for _, key := range keys {
		outcomes[key] = b.Flush(ctx, key.Dataset, key.Table)
	}
	return outcomes
}

// Reset wipes all in-memory batches without flushing. Test and operational
// reset hook only; must never be used in the production ingest flow since it
// silently drops pending records.
func (b *Batcher) Reset() {
	b.mu.Lock()
	dropped := 0
	for _, rows := range b.batches {
		dropped += len(rows)
	}
	b.batches = make(map[TableKey][]warehouse.Row)
	b.mu.Unlock()

	if dropped > 0 {
		logging.Warn("Batch: Reset dropped %d pending records", dropped)
	}
}
