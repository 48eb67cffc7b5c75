package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/bot"
	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/resilience"
	"github.com/tallydesk/tally/internal/rules"
	"github.com/tallydesk/tally/internal/usererr"
	"github.com/tallydesk/tally/internal/validate"
)

// WebhookRequest is the inbound chat platform event: one message posted in a
// channel the bot listens to.
type WebhookRequest struct {
	Channel  string `json:"channel" binding:"required"`
	ThreadID string `json:"thread_id,omitempty"`
	User     string `json:"user,omitempty"`
	Text     string `json:"text" binding:"required"`
}

const webhookUsage = "Commands: `add <table> field=value ...`, `flush`, `status`, `help`"

// HandleWebhook processes one chat message as a bot command and replies in
// the originating channel. The webhook always acknowledges the platform with
// 200 once the payload parses; command failures are reported to the user as a
// reply with the stable category message, never as an HTTP error the platform
// would retry.
func HandleWebhook(batcher *batch.Batcher, contexts map[string]validate.EntryContext,
	dataset string, checker *rules.Checker, breakers *resilience.Registry, notifier bot.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}

		reply := runCommand(c.Request.Context(), req.Text, batcher, contexts, dataset, checker, breakers)

		if notifier != nil {
			msg := bot.Message{Channel: req.Channel, ThreadID: req.ThreadID, Text: reply}
			if err := notifier.Send(c.Request.Context(), msg); err != nil {
				// Reply delivery is best-effort; the entry itself is already
				// queued or rejected regardless.
				logging.Warn("API: Failed to deliver reply to %s: %v", req.Channel, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   gin.H{"reply": reply},
		})
	}
}

// runCommand dispatches one chat command and returns the reply text
func runCommand(ctx context.Context, text string, batcher *batch.Batcher,
	contexts map[string]validate.EntryContext, dataset string, checker *rules.Checker,
	breakers *resilience.Registry) string {

	args := splitArgs(strings.TrimSpace(text))
	if len(args) == 0 {
		return webhookUsage
	}

	switch strings.ToLower(args[0]) {
	case "help":
		return webhookUsage
	case "status":
		return statusReply(batcher, breakers)
	case "flush":
		return flushReply(ctx, batcher)
	case "add":
		return addReply(ctx, args[1:], batcher, contexts, dataset, checker)
	default:
		return fmt.Sprintf("Unknown command %q. %s", args[0], webhookUsage)
	}
}

// statusReply summarizes pending batches and breaker states
func statusReply(batcher *batch.Batcher, breakers *resilience.Registry) string {
	var b strings.Builder

	sizes := batcher.Sizes()
	if len(sizes) == 0 {
		b.WriteString("No pending records.")
	} else {
		keys := make([]batch.TableKey, 0, len(sizes))
		for key := range sizes {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		b.WriteString("Pending records:")
		for _, key := range keys {
			fmt.Fprintf(&b, " %s=%d", key, sizes[key])
		}
	}

	for _, status := range breakers.Statuses() {
		if status.State == resilience.StateOpen {
			fmt.Fprintf(&b, " Breaker %s is OPEN (%d failures).", status.Name, status.Failures)
		}
	}

	return b.String()
}

// flushReply flushes everything and summarizes the outcomes
func flushReply(ctx context.Context, batcher *batch.Batcher) string {
	outcomes := batcher.FlushAll(ctx)
	if len(outcomes) == 0 {
		return "Nothing to flush."
	}

	flushed, retained := 0, 0
	var firstErr error
	for _, outcome := range outcomes {
		switch outcome.Status {
		case batch.StatusFlushed:
			flushed += outcome.Rows
		case batch.StatusRetained:
			retained += outcome.Rows
			if firstErr == nil {
				firstErr = outcome.Err
			}
		}
	}

	if retained > 0 {
		return fmt.Sprintf("Flushed %d records; %d retained for retry. %s",
			flushed, retained, usererr.MessageFor(firstErr))
	}
	return fmt.Sprintf("Flushed %d records.", flushed)
}

// addReply parses "add <table> field=value ..." and ingests the record
func addReply(ctx context.Context, args []string, batcher *batch.Batcher,
	contexts map[string]validate.EntryContext, dataset string, checker *rules.Checker) string {

	if len(args) < 2 {
		return "Usage: `add <table> field=value ...`"
	}

	table := args[0]
	record := make(map[string]any, len(args)-1)
	for _, pair := range args[1:] {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Sprintf("Expected field=value, got %q.", pair)
		}
		record[name] = value
	}

	response, err := ingest(ctx, batcher, contexts, dataset, table, record, checker)
	if err != nil {
		return usererr.MessageFor(err) + " (" + err.Error() + ")"
	}

	reply := fmt.Sprintf("Recorded entry %s for %s.%s (%d pending).",
		response.EntryID, response.Dataset, response.Table, response.Pending)

	for _, finding := range response.Findings {
		reply += fmt.Sprintf(" Heads up: %s.", finding.Detail)
	}
	if response.Flush != nil && response.Flush.Status == string(batch.StatusRetained) {
		reply += " The warehouse write is delayed; your entry is queued and will be retried."
	}

	return reply
}

// splitArgs splits a command line on whitespace, honoring double quotes so
// values like vendor="acme corp" keep their spaces.
func splitArgs(text string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	flushed := false

	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			flushed = true
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			if current.Len() > 0 || flushed {
				args = append(args, current.String())
				current.Reset()
				flushed = false
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || flushed {
		args = append(args, current.String())
	}

	return args
}
