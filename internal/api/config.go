// Package api provides HTTP API server configuration for the Tally daemon.
//
// This file defines configuration structures and validation logic for the REST
// API server that exposes the data-entry surface to the chat platform and to
// operator tooling. The configuration system manages HTTP server settings
// including network binding parameters and the injected core components the
// handlers depend on: the write batcher, the lookup cache store, the breaker
// registry, and the outbound chat notifier.
//
// The Config struct serves as a dependency injection container, ensuring that
// the API server has access to all necessary services while maintaining loose
// coupling between components. This design enables proper initialization
// ordering and facilitates testing by allowing fake implementations of every
// dependency.
package api

import (
	"fmt"

	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/bot"
	"github.com/tallydesk/tally/internal/cache"
	"github.com/tallydesk/tally/internal/config"
	"github.com/tallydesk/tally/internal/resilience"
	"github.com/tallydesk/tally/internal/rules"
	"github.com/tallydesk/tally/internal/validate"
)

// Config holds all configuration parameters required for running the HTTP API
// server within a Tally deployment.
//
// TODO: Add support for TLS/HTTPS configuration (cert/key files)
// TODO: Add support for authentication middleware for operator endpoints
type Config struct {
	BindAddr string // HTTP server bind address (e.g., "0.0.0.0")
	BindPort int    // HTTP server bind port

	// Dataset is the warehouse dataset chat entries land in when a request
	// does not name one explicitly.
	Dataset string

	Batcher  *batch.Batcher                   // Write batcher for entry ingestion
	Store    cache.Store                      // Lookup cache backend
	Breakers *resilience.Registry             // Circuit breaker registry for status reporting
	Checker  *rules.Checker                   // Transaction-error rule checker
	Notifier bot.Notifier                     // Outbound chat client; nil disables replies
	Contexts map[string]validate.EntryContext // Per-table validation contexts
}

// DefaultConfig creates a new Config instance with sensible default values.
// Core component references must be set by the caller before Validate passes.
func DefaultConfig() *Config {
	return &Config{
		BindAddr: config.DefaultBindAddr,
		BindPort: config.DefaultAPIPort,
		Dataset:  config.DefaultDataset,
		Batcher:  nil, // Must be set by caller
		Store:    nil, // Must be set by caller
		Breakers: nil, // Must be set by caller
		Checker:  rules.NewChecker(),
		Contexts: map[string]validate.EntryContext{},
	}
}

// Validate checks that network settings are usable and that every required
// component is wired. The notifier is optional: without one the webhook still
// ingests entries, it just cannot reply in the channel.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if err := validate.DestinationName(c.Dataset); err != nil {
		return fmt.Errorf("dataset validation failed: %w", err)
	}
	if c.Batcher == nil {
		return fmt.Errorf("batcher cannot be nil")
	}
	if c.Store == nil {
		return fmt.Errorf("cache store cannot be nil")
	}
	if c.Breakers == nil {
		return fmt.Errorf("breaker registry cannot be nil")
	}
	if c.Checker == nil {
		return fmt.Errorf("rule checker cannot be nil")
	}

	return nil
}
