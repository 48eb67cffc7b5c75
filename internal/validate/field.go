// Package validate provides input validation utilities for Tally data entry,
// ensuring malformed chat input never reaches the batcher or the warehouse.
//
// Implements validation rules for entry fields, destination names, and
// configuration parameters. All functions leverage the go-playground/validator
// library for standardized validation behavior.
//
// VALIDATION COVERAGE:
//   - Entry fields: per-field rules driven by the destination table's context
//   - Destination names: format validation for dataset/table identifiers
//   - Configuration: required strings, ports, and timeout parameters
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Using built-in validators: required, numeric, min, max - no custom registration needed
}

// ValidateField validates a single value against a validator tag expression.
// Centralizes var-level validation so every entry point produces consistent
// errors for the same rule.
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// ValidateRequiredString validates that a string field is not empty.
// Prevents runtime failures from missing essential parameters like warehouse
// DSNs and dataset names.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePortRange validates that a port number is within the valid range
// (1-65535). Rejects port 0 (OS-assigned) since the webhook endpoint must be
// reachable at a predictable address.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidatePositiveTimeout validates that a timeout duration is positive (> 0).
// Used for flush intervals and HTTP client timeouts to ensure proper timing
// behavior.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// destinationRegex matches warehouse dataset and table identifiers:
// lowercase letters, numbers, and underscores, starting with a letter.
var destinationRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DestinationName validates a dataset or table name before it is interpolated
// into batch keys and SQL identifiers. Chat input chooses the destination
// table, so the format check is a hard gate, not a convenience.
func DestinationName(name string) error {
	if name == "" {
		return fmt.Errorf("destination name cannot be empty")
	}
	if !destinationRegex.MatchString(name) {
		return fmt.Errorf("destination name '%s' must contain only lowercase letters [a-z], numbers [0-9], and underscores (_), starting with a letter", name)
	}
	if strings.HasSuffix(name, "_") {
		return fmt.Errorf("destination name '%s' cannot end with underscore (_)", name)
	}
	return nil
}
