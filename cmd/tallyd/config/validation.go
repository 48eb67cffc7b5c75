// Package config handles configuration validation for the Tally daemon.
//
// This file provides validation logic for all daemon configuration parameters
// before startup. Validation ensures reliable operation by:
//   - Parsing and validating the API bind address
//   - Enforcing explicit port assignment (no OS-assigned ports)
//   - Checking warehouse, cache, and batching settings before any connection
//     attempt so operators see configuration mistakes immediately
//
// The validation process transforms raw flag values into validated, normalized
// forms ready for service initialization.
package config

import (
	"fmt"
	"time"

	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/validate"
)

// ValidateConfig performs validation and normalization of all daemon
// configuration parameters before service startup. Returns an error for any
// validation failure with descriptive context to aid debugging.
func ValidateConfig() error {
	// Parse and validate the API bind address. The webhook must be reachable
	// at a predictable address, so port 0 (OS-assigned) is rejected.
	netAddr, err := validate.ParseBindAddress(Global.APIAddr)
	if err != nil {
		logging.Error("Invalid api address '%s': %v", Global.APIAddr, err)
		return fmt.Errorf("invalid api address: %w", err)
	}
	if err := validate.ValidateField(netAddr.Port, "required,min=1,max=65535"); err != nil {
		logging.Error("API port cannot be 0 (auto-assigned) - the webhook needs an explicit port")
		return fmt.Errorf("daemon requires specific port (not 0): %w", err)
	}
	Global.APIAddr = netAddr.Host
	Global.APIPort = netAddr.Port

	if err := validate.ValidateRequiredString(Global.WarehouseDSN, "warehouse DSN"); err != nil {
		logging.Error("Warehouse DSN not configured; set --warehouse-dsn or %s", EnvWarehouseDSN)
		return err
	}

	if err := validate.DestinationName(Global.Dataset); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}

	switch Global.CacheBackend {
	case "warehouse":
		if err := validate.DestinationName(Global.CacheTable); err != nil {
			return fmt.Errorf("invalid cache table: %w", err)
		}
	case "redis":
		if _, err := validate.ParseBindAddress(Global.RedisAddr); err != nil {
			return fmt.Errorf("invalid redis address: %w", err)
		}
	case "memory":
		// No settings; process-local cache.
	default:
		return fmt.Errorf("invalid cache backend: %s (must be warehouse, redis, or memory)", Global.CacheBackend)
	}

	if Global.MaxBatchSize < 1 {
		return fmt.Errorf("max-batch-size must be positive, got: %d", Global.MaxBatchSize)
	}
	if Global.FlushInterval < 1 {
		return fmt.Errorf("flush-interval must be positive, got: %d", Global.FlushInterval)
	}
	if err := validate.ValidatePositiveTimeout(time.Duration(Global.BotTimeout)*time.Second, "bot-timeout"); err != nil {
		return err
	}

	// A bot URL without a token cannot authenticate; catch it at startup
	// rather than on the first reply.
	if Global.BotURL != "" && Global.BotToken == "" {
		return fmt.Errorf("bot URL configured without a token; set --bot-token or %s", EnvBotToken)
	}

	if err := logging.ValidateLogLevel(Global.LogLevel); err != nil {
		return err
	}

	return nil
}
