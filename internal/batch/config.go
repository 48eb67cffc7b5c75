// Package batch provides micro-batched warehouse writes for chat-driven data
// entry, decoupling the rate of per-message insert requests from the rate of
// expensive remote bulk-insert calls.
package batch

import (
	"fmt"

	"github.com/tallydesk/tally/internal/config"
)

// Config holds configuration parameters for the write batcher. Defines the
// batch-size policy threshold that callers use to decide when to proactively
// flush a destination table.
//
// The batcher itself never self-triggers on MaxBatchSize; triggering is the
// responsibility of the caller or the daemon's flush scheduler.
type Config struct {
	// MaxBatchSize is the per-table row count at which ShouldFlush reports
	// true. Purely advisory; inserts above the threshold still succeed.
	MaxBatchSize int `json:"max_batch_size"`
}

// DefaultConfig returns a Config with production-ready defaults sized for
// chat-paced data entry, where a single conversation produces rows far slower
// than the warehouse can absorb them.
func DefaultConfig() *Config {
	return &Config{
		MaxBatchSize: config.DefaultMaxBatchSize,
	}
}

// Validate checks the batching configuration for values that would break the
// flush policy. Catches configuration errors at startup rather than at the
// first flush decision.
func (c *Config) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", c.MaxBatchSize)
	}
	if c.MaxBatchSize > 10000 {
		return fmt.Errorf("max batch size too large (max 10000), got %d", c.MaxBatchSize)
	}
	return nil
}
