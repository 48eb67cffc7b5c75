// Package daemon wires together and runs the Tally service: warehouse client,
// write batcher, lookup cache, breaker registry, chat notifier, and the HTTP
// API server, plus the periodic flush scheduler and graceful shutdown.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallydesk/tally/cmd/tallyd/config"
	"github.com/tallydesk/tally/internal/api"
	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/bot"
	"github.com/tallydesk/tally/internal/cache"
	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/resilience"
	"github.com/tallydesk/tally/internal/version"
	"github.com/tallydesk/tally/internal/warehouse"
)

// Timeouts for startup and shutdown phases
const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	// finalFlushTimeout bounds the last-chance flush on shutdown so a dead
	// warehouse cannot hang the process under systemd's kill timer.
	finalFlushTimeout = 15 * time.Second
)

// Run starts the daemon and blocks until a shutdown signal arrives
func Run() error {
	cfg := &config.Global

	logging.Info("Starting Tally daemon v%s", version.TallydVersion)
	logging.Info("Dataset: %s, Cache backend: %s, Flush interval: %ds",
		cfg.Dataset, cfg.CacheBackend, cfg.FlushInterval)

	// Dependencies that fall back to the standard library logger (database
	// drivers mostly) get routed into the shared pipeline.
	logging.RedirectStandardLog(logging.NewLevelWriter("WARN", "stdlib"))

	// Connect to the warehouse first; nothing works without it
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	pg, err := warehouse.Open(connectCtx, cfg.WarehouseDSN)
	cancelConnect()
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer func() {
		if err := pg.Close(); err != nil {
			logging.Error("Error closing warehouse connection: %v", err)
		}
	}()

	// Every warehouse call goes through the shared breaker with the standard
	// retry policy, so a warehouse outage is detected once and short-circuits
	// ingestion, cache reads, and flushes alike.
	breakers := resilience.NewRegistry(resilience.DefaultBreakerOptions())
	client := warehouse.NewResilientClient(pg, breakers.Get("warehouse"), resilience.DefaultRetryOptions())

	batchConfig := &batch.Config{MaxBatchSize: cfg.MaxBatchSize}
	if err := batchConfig.Validate(); err != nil {
		return fmt.Errorf("invalid batch config: %w", err)
	}
	batcher := batch.New(client, batchConfig)

	store, err := cache.BuildStore(cfg.CacheBackend, cache.FactoryOptions{
		Warehouse: client,
		Dataset:   cfg.Dataset,
		Table:     cfg.CacheTable,
		RedisAddr: cfg.RedisAddr,
	})
	if err != nil {
		return fmt.Errorf("failed to build cache store: %w", err)
	}

	contexts, err := loadContexts(cfg.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load table contexts: %w", err)
	}
	logging.Info("Loaded validation contexts for %d tables", len(contexts))

	var notifier bot.Notifier
	if cfg.BotURL != "" {
		notifier = bot.NewMessenger(cfg.BotURL, cfg.BotToken, cfg.BotTimeout)
		logging.Info("Chat replies enabled via %s", cfg.BotURL)
	} else {
		logging.Warn("No bot URL configured; webhook replies are disabled")
	}

	apiConfig := api.DefaultConfig()
	apiConfig.BindAddr = cfg.APIAddr
	apiConfig.BindPort = cfg.APIPort
	apiConfig.Dataset = cfg.Dataset
	apiConfig.Batcher = batcher
	apiConfig.Store = store
	apiConfig.Breakers = breakers
	apiConfig.Notifier = notifier
	apiConfig.Contexts = contexts
	if err := apiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}

	server := api.NewServer(apiConfig)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Periodic flush scheduler. The batcher never flushes on its own; this
	// ticker is the only time-based trigger in the process.
	flushCtx, cancelFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	go runFlushLoop(flushCtx, batcher, time.Duration(cfg.FlushInterval)*time.Second, flushDone)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logging.Success("Tally daemon started successfully")
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	sig := <-sigCh
	logging.Info("Received signal: %v", sig)

	// Graceful shutdown: stop accepting requests, stop the scheduler, then
	// attempt one final flush so pending records survive a clean restart.
	logging.Info("Initiating graceful shutdown...")

	cancelFlush()
	<-flushDone

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down API server: %v", err)
	}
	cancelShutdown()

	finalCtx, cancelFinal := context.WithTimeout(context.Background(), finalFlushTimeout)
	reportOutcomes("final flush", batcher.FlushAll(finalCtx))
	cancelFinal()

	logging.Success("Tally daemon shutdown completed")
	return nil
}

// runFlushLoop flushes all pending batches on a fixed interval until the
// context is cancelled
func runFlushLoop(ctx context.Context, batcher *batch.Batcher, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reportOutcomes("scheduled flush", batcher.FlushAll(ctx))
		}
	}
}

// reportOutcomes logs a summary of a FlushAll run, skipping quiet cycles
func reportOutcomes(label string, outcomes map[batch.TableKey]batch.Outcome) {
	flushed, retained := 0, 0
	for key, outcome := range outcomes {
		switch outcome.Status {
		case batch.StatusFlushed:
			flushed += outcome.Rows
		case batch.StatusRetained:
			retained += outcome.Rows
			logging.Warn("Daemon: %s retained %d rows for %s: %v", label, outcome.Rows, key, outcome.Err)
		}
	}

	if flushed > 0 || retained > 0 {
		logging.Info("Daemon: %s submitted %d rows, retained %d", label, flushed, retained)
	}
}
