// Package usererr maps internal errors to the closed set of user-facing
// message categories the chat surface is allowed to emit. Operators chatting
// with the bot never see raw driver errors; they see one stable message per
// category, and anything unrecognized falls back to the generic message.
package usererr

import (
	"context"
	"errors"
	"net"

	"github.com/lib/pq"

	"github.com/tallydesk/tally/internal/resilience"
	"github.com/tallydesk/tally/internal/validate"
)

// Category is one member of the closed user-facing error taxonomy.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryPermission Category = "permission"
	CategoryTimeout    Category = "timeout"
	CategoryRateLimit  Category = "rate_limit"
	CategoryInternal   Category = "internal"
	CategoryUnknown    Category = "unknown"
)

// messages holds the stable per-category user strings. The set is closed:
// new categories require a new entry here, and unknown kinds always render
// the CategoryUnknown message.
var messages = map[Category]string{
	CategoryValidation: "Some fields in your entry are invalid. Please check the values and try again.",
	CategoryPermission: "You don't have permission for that operation. Contact your workspace admin.",
	CategoryTimeout:    "The data warehouse took too long to respond. Your entry is queued and will be retried.",
	CategoryRateLimit:  "The service is catching up on a backlog. Please wait a moment and try again.",
	CategoryInternal:   "Something went wrong on our side. The team has been notified.",
	CategoryUnknown:    "Sorry, that didn't work. Please try again.",
}

// Categorize maps an error to its user-facing category. Recognized kinds:
// entry validation failures, circuit-breaker short-circuits, context and
// network timeouts, and Postgres permission/capacity/cancellation classes.
// Everything else is CategoryUnknown.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if validate.IsValidationError(err) {
		return CategoryValidation
	}

	// Breaker open means the dependency is in cooldown, not that the call
	// itself failed; surface it as backpressure rather than an internal error.
	var openErr *resilience.OpenError
	if errors.As(err, &openErr) {
		return CategoryRateLimit
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42501" || pqErr.Code.Class() == "28":
			// insufficient_privilege or authentication failures
			return CategoryPermission
		case pqErr.Code.Class() == "53":
			// insufficient_resources (connection limits etc.)
			return CategoryRateLimit
		case pqErr.Code.Class() == "57":
			// operator_intervention, including query_canceled
			return CategoryTimeout
		default:
			return CategoryInternal
		}
	}

	return CategoryUnknown
}

// Message returns the stable user message for a category. Categories outside
// the closed set render the generic fallback.
func Message(cat Category) string {
	if msg, ok := messages[cat]; ok {
		return msg
	}
	return messages[CategoryUnknown]
}

// MessageFor is the common composition: categorize the error, render its
// message.
func MessageFor(err error) string {
	return Message(Categorize(err))
}
