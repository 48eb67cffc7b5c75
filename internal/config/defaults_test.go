package config

import (
	"net"
	"strings"
	"testing"
)

// TestDefaultBindAddrIsValidIP validates that the default bind address is a valid IP
func TestDefaultBindAddrIsValidIP(t *testing.T) {
	ip := net.ParseIP(DefaultBindAddr)
	if ip == nil {
		t.Errorf("DefaultBindAddr %q is not a valid IP address", DefaultBindAddr)
	}

	// Verify it's IPv4
	if ip.To4() == nil {
		t.Errorf("DefaultBindAddr %q is not a valid IPv4 address", DefaultBindAddr)
	}
}

// TestDefaultLogLevelIsValid validates that the default log level is a recognized level
func TestDefaultLogLevelIsValid(t *testing.T) {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}

	isValid := false
	for _, level := range validLevels {
		if DefaultLogLevel == level {
			isValid = true
			break
		}
	}

	if !isValid {
		t.Errorf("DefaultLogLevel %q is not a valid log level. Valid levels: %v",
			DefaultLogLevel, validLevels)
	}

	if DefaultLogLevel != strings.ToUpper(DefaultLogLevel) {
		t.Errorf("DefaultLogLevel %q should be uppercase", DefaultLogLevel)
	}
}

// TestDefaultPortRange validates that the default API port is usable
func TestDefaultPortRange(t *testing.T) {
	if DefaultAPIPort < 1 || DefaultAPIPort > 65535 {
		t.Errorf("DefaultAPIPort %d is outside the valid port range", DefaultAPIPort)
	}
}

// TestDefaultPolicyValues validates logical consistency between the batching
// and caching defaults
func TestDefaultPolicyValues(t *testing.T) {
	if DefaultMaxBatchSize < 1 {
		t.Errorf("DefaultMaxBatchSize must be positive, got %d", DefaultMaxBatchSize)
	}
	if DefaultFlushInterval < 1 {
		t.Errorf("DefaultFlushInterval must be positive, got %d", DefaultFlushInterval)
	}
	if DefaultCacheTTLHours < 1 {
		t.Errorf("DefaultCacheTTLHours must be positive, got %d", DefaultCacheTTLHours)
	}
	if DefaultCacheBackend != "warehouse" && DefaultCacheBackend != "redis" && DefaultCacheBackend != "memory" {
		t.Errorf("DefaultCacheBackend %q is not a supported backend", DefaultCacheBackend)
	}
}

// TestDefaultDatasetIsValidName validates the default dataset against the
// destination naming rules enforced at ingest time
func TestDefaultDatasetIsValidName(t *testing.T) {
	if DefaultDataset == "" {
		t.Error("DefaultDataset should not be empty")
	}
	if DefaultDataset != strings.ToLower(DefaultDataset) {
		t.Errorf("DefaultDataset %q should be lowercase", DefaultDataset)
	}
	if strings.Contains(DefaultDataset, " ") {
		t.Errorf("DefaultDataset %q should not contain spaces", DefaultDataset)
	}
}
