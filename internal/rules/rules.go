// Package rules provides rule-based transaction-error detection for chat-entered
// records. Each rule is an independent date comparison; a record can trip
// several rules at once and every finding is reported.
//
// Rules never reject a record on their own. Findings are advisory: the chat
// surface echoes them back so the operator can correct the entry, while the
// record still queues for the warehouse unless the operator withdraws it.
// Unparseable or absent date fields skip a rule rather than producing a
// false positive.
package rules

import (
	"fmt"
	"time"

	"github.com/tallydesk/tally/internal/validate"
)

// Finding is one tripped rule for one record.
type Finding struct {
	Rule   string `json:"rule"`
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// Checker evaluates the transaction-error rules. StaleAfter bounds how far
// in the past a transaction date may lie before it is flagged as a likely
// typo (a swapped year, most commonly).
type Checker struct {
	StaleAfter time.Duration

	// now is injectable for date-boundary tests.
	now func() time.Time
}

// NewChecker returns a checker with the default 90-day staleness window.
func NewChecker() *Checker {
	return &Checker{
		StaleAfter: 90 * 24 * time.Hour,
		now:        time.Now,
	}
}

// Check runs all rules against the record and returns every finding. The
// rules are independent; no rule's outcome affects another's.
func (c *Checker) Check(record map[string]any) []Finding {
	var findings []Finding

	today := c.now().Truncate(24 * time.Hour)

	txnDate, hasTxn := parseDateField(record, "txn_date")
	dueDate, hasDue := parseDateField(record, "due_date")
	createdAt, hasCreated := parseDateField(record, "created_at")
	updatedAt, hasUpdated := parseDateField(record, "updated_at")

	// Rule: transaction date must not be in the future
	if hasTxn && txnDate.After(today) {
		findings = append(findings, Finding{
			Rule:   "future_transaction_date",
			Field:  "txn_date",
			Detail: fmt.Sprintf("transaction date %s is in the future", txnDate.Format(validate.DateLayout)),
		})
	}

	// Rule: transaction date far in the past is a likely typo
	if hasTxn && today.Sub(txnDate) > c.StaleAfter {
		findings = append(findings, Finding{
			Rule:   "stale_transaction_date",
			Field:  "txn_date",
			Detail: fmt.Sprintf("transaction date %s is more than %d days old", txnDate.Format(validate.DateLayout), int(c.StaleAfter.Hours()/24)),
		})
	}

	// Rule: a due date cannot precede the transaction it belongs to
	if hasTxn && hasDue && dueDate.Before(txnDate) {
		findings = append(findings, Finding{
			Rule:   "due_before_transaction",
			Field:  "due_date",
			Detail: fmt.Sprintf("due date %s precedes transaction date %s", dueDate.Format(validate.DateLayout), txnDate.Format(validate.DateLayout)),
		})
	}

	// Rule: bookkeeping timestamps must be ordered
	if hasCreated && hasUpdated && updatedAt.Before(createdAt) {
		findings = append(findings, Finding{
			Rule:   "updated_before_created",
			Field:  "updated_at",
			Detail: fmt.Sprintf("updated_at %s precedes created_at %s", updatedAt.Format(validate.DateLayout), createdAt.Format(validate.DateLayout)),
		})
	}

	return findings
}

// parseDateField extracts a date from the record, accepting either a
// time.Time value or a string in the chat date layout. Anything else means
// the field is treated as absent.
func parseDateField(record map[string]any, field string) (time.Time, bool) {
	value, ok := record[field]
	if !ok {
		return time.Time{}, false
	}

	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := time.Parse(validate.DateLayout, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
