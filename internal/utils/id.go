// Package utils provides common utility functions for the Tally service.
//
// This file implements unified ID generation used across the service for
// creating unique identifiers. Provides consistent ID formats for flush
// operations and other correlation points while eliminating code duplication.
//
// ID GENERATION STRATEGY:
// Uses crypto/rand for high-quality random data generation to ensure uniqueness
// and prevent collisions. All IDs follow the same 12-character hexadecimal
// format for consistency and readability.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID creates a unique 12-character hex identifier for correlating
// related log lines, primarily batch flush attempts. Uses crypto/rand to
// ensure uniqueness and prevent collisions.
//
// Returns format: "a1b2c3d4e5f6" (12 hex characters, similar to Docker short IDs)
func GenerateID() (string, error) {
	// Generate 6 bytes of random data (12 hex characters)
	bytes := make([]byte, 6)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
