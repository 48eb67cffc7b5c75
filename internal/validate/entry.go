// Package validate provides input validation utilities for Tally data entry.
// This file implements context-aware entry validation: the same raw chat
// input is checked against different per-field rules depending on which
// destination table the conversation is filling in.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for all date fields entered through chat.
const DateLayout = "2006-01-02"

// FieldKind selects the rule set applied to one entry field.
type FieldKind string

const (
	// KindText accepts any non-empty string.
	KindText FieldKind = "text"
	// KindAmount requires a decimal number.
	KindAmount FieldKind = "amount"
	// KindDate requires a YYYY-MM-DD date.
	KindDate FieldKind = "date"
	// KindCode requires one of an enumerated set of codes.
	KindCode FieldKind = "code"
)

// FieldRule describes the validation context for one field of a destination
// table.
type FieldRule struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Codes    []string  `json:"codes,omitempty"` // Allowed values for KindCode
}

// EntryContext is the validation context for one destination table: which
// fields it expects and the rules for each.
type EntryContext struct {
	Table  string      `json:"table"`
	Fields []FieldRule `json:"fields"`
}

// FieldError reports one field that failed validation. Exposed as a type so
// the user-message layer can recognize validation failures and render them
// per-field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Entry checks every rule of the context against the record and returns all
// failures joined into one error, or nil when the record is valid. Fields in
// the record that the context does not mention are rejected so typos in chat
// field names surface immediately instead of landing as NULL columns.
func Entry(record map[string]any, entryCtx EntryContext) error {
	var errs []error

	known := make(map[string]FieldRule, len(entryCtx.Fields))
	for _, rule := range entryCtx.Fields {
		known[rule.Name] = rule

		value, present := record[rule.Name]
		if !present || isEmpty(value) {
			if rule.Required {
				errs = append(errs, &FieldError{Field: rule.Name, Reason: "required"})
			}
			continue
		}
		if err := checkField(rule, value); err != nil {
			errs = append(errs, err)
		}
	}

	for name := range record {
		if _, ok := known[name]; !ok {
			errs = append(errs, &FieldError{Field: name, Reason: fmt.Sprintf("unknown field for table %s", entryCtx.Table)})
		}
	}

	return errors.Join(errs...)
}

// checkField applies one rule to a present, non-empty value.
func checkField(rule FieldRule, value any) error {
	text := fmt.Sprintf("%v", value)

	switch rule.Kind {
	case KindText:
		// Presence already checked; any non-empty string is fine.
		return nil
	case KindAmount:
		if err := ValidateField(text, "numeric"); err != nil {
			return &FieldError{Field: rule.Name, Reason: fmt.Sprintf("must be a number, got %q", text)}
		}
	case KindDate:
		if _, err := time.Parse(DateLayout, text); err != nil {
			return &FieldError{Field: rule.Name, Reason: fmt.Sprintf("must be a date in %s form, got %q", DateLayout, text)}
		}
	case KindCode:
		for _, code := range rule.Codes {
			if text == code {
				return nil
			}
		}
		return &FieldError{Field: rule.Name, Reason: fmt.Sprintf("must be one of [%s], got %q", strings.Join(rule.Codes, ", "), text)}
	default:
		return &FieldError{Field: rule.Name, Reason: fmt.Sprintf("unknown field kind %q", rule.Kind)}
	}
	return nil
}

// isEmpty treats nil and whitespace-only strings as absent.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// IsValidationError reports whether err (or anything it joins/wraps)
// originated from entry validation.
func IsValidationError(err error) bool {
	var fieldErr *FieldError
	return errors.As(err, &fieldErr)
}
