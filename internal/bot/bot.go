// Package bot provides the outbound chat-platform client for Tally.
//
// This package implements the HTTP client layer for pushing messages back to
// the chat platform: entry confirmations, validation feedback, rule findings,
// and operational replies to bot commands. It handles request serialization,
// retry logic, and structured logging for reliable message delivery.
//
// CLIENT ARCHITECTURE:
// The Messenger wraps the Resty HTTP client with platform-specific behavior:
//   - Connection Management: Timeout configuration and retry policies
//   - Request Handling: JSON serialization and User-Agent versioning
//   - Fault Tolerance: Automatic retries on connection failures
//
// Message delivery is best-effort from the caller's point of view: a failed
// reply never fails the entry it describes. Callers log delivery errors and
// move on; the warehouse write path is the durable one.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/version"
)

// Message is one outbound chat message addressed to a channel. ThreadID is
// optional; when set the platform renders the message as a threaded reply.
type Message struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Notifier is the outbound-message surface handlers depend on. Satisfied by
// Messenger in production and by fakes in tests.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Messenger delivers messages to the chat platform over HTTP. Configured with
// timeouts and retry policies appropriate for a best-effort notification path.
type Messenger struct {
	client  *resty.Client
	baseURL string
}

// NewMessenger creates a chat-platform client for the given base URL and
// bot token. Configures timeout handling, retry logic, and structured logging
// so delivery failures are visible without being fatal.
func NewMessenger(baseURL, token string, timeout int) *Messenger {
	client := resty.New()

	client.
		SetTimeout(time.Duration(timeout)*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", token)).
		SetHeader("User-Agent", fmt.Sprintf("tallyd/%s", version.TallydVersion))

	client.
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only retry on connection errors, not HTTP errors
			return err != nil
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Bot: sending request %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("Bot: response %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	return &Messenger{
		client:  client,
		baseURL: baseURL,
	}
}

// Send posts one message to the platform's message endpoint. Returns an error
// on connection failure or any non-2xx status; callers decide whether delivery
// failure matters for their operation.
func (m *Messenger) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/messages")

	if err != nil {
		return fmt.Errorf("failed to reach chat platform at %s: %w", m.baseURL, err)
	}

	if resp.StatusCode() == 429 {
		return fmt.Errorf("chat platform rate limited message to %s", msg.Channel)
	}

	if resp.IsError() {
		return fmt.Errorf("chat platform rejected message with status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}
