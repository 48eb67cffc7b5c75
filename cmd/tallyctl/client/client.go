// Package client provides the API client for the tallyctl CLI.
//
// This package implements the HTTP client layer for communicating with the
// tallyd REST API. It handles request/response serialization, error handling,
// retry logic, and structured logging for reliable operator workflows.
//
// The response types mirror the daemon API payloads so CLI commands and
// display functions work with typed data instead of raw JSON maps.
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tallydesk/tally/cmd/tallyctl/config"
	"github.com/tallydesk/tally/cmd/tallyctl/utils"
	"github.com/tallydesk/tally/internal/logging"
)

// Health mirrors the daemon health endpoint payload
type Health struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	Uptime         string    `json:"uptime"`
	PendingRecords int       `json:"pendingRecords"`
}

// BatchSize mirrors one pending-batch entry from the daemon
type BatchSize struct {
	Dataset string `json:"dataset"`
	Table   string `json:"table"`
	Pending int    `json:"pending"`
}

// FlushOutcome mirrors the daemon's rendering of one flush result
type FlushOutcome struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// BreakerStatus mirrors one circuit breaker's reported state
type BreakerStatus struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// EntryResult mirrors the daemon's response to an accepted entry
type EntryResult struct {
	EntryID string        `json:"entry_id"`
	Dataset string        `json:"dataset"`
	Table   string        `json:"table"`
	Pending int           `json:"pending"`
	Flush   *FlushOutcome `json:"flush,omitempty"`
}

// LookupResult mirrors one cache read
type LookupResult struct {
	Key     string          `json:"key"`
	Found   bool            `json:"found"`
	Payload json.RawMessage `json:"payload"`
}

// TallyAPIClient wraps the Resty HTTP client with daemon-specific
// functionality: timeouts, retry policy, and structured logging.
type TallyAPIClient struct {
	client  *resty.Client
	baseURL string
}

// NewTallyAPIClient creates a new API client with Resty configuration for
// reliable daemon communication
func NewTallyAPIClient(apiAddr string, timeout int) *TallyAPIClient {
	client := resty.New()

	baseURL := fmt.Sprintf("http://%s/api/v1", apiAddr)

	// Route Resty's internal logging through our structured logging system
	client.SetLogger(utils.RestyLogger{})

	// Configure client with timeouts, headers, and retry logic
	client.
		SetTimeout(time.Duration(timeout)*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("tallyctl/%s", config.Version))

	// Add retry mechanism with custom retry conditions
	client.
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only retry on connection errors, not HTTP errors
			return err != nil
		})

	// Custom request logging using structured logging
	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})

	// Custom response logging using structured logging
	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	return &TallyAPIClient{
		client:  client,
		baseURL: baseURL,
	}
}

// GetHealth fetches daemon health including pending record totals
func (api *TallyAPIClient) GetHealth() (*Health, error) {
	var health Health

	resp, err := api.client.R().
		SetResult(&health).
		Get("/health")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &health, nil
}

// GetBatches fetches pending record counts per destination table
func (api *TallyAPIClient) GetBatches() ([]BatchSize, error) {
	var response struct {
		Data []BatchSize `json:"data"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Get("/batches")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Data, nil
}

// FlushAll asks the daemon to flush every pending batch and returns the
// per-destination outcomes
func (api *TallyAPIClient) FlushAll() (map[string]FlushOutcome, error) {
	var response struct {
		Data map[string]FlushOutcome `json:"data"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Post("/batches/flush")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Data, nil
}

// FlushTable flushes one destination table. A retained outcome is returned
// with its error message rather than failing the call, since the daemon
// keeps the rows queued.
func (api *TallyAPIClient) FlushTable(dataset, table string) (*FlushOutcome, error) {
	var response struct {
		Data FlushOutcome `json:"data"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Post(fmt.Sprintf("/batches/%s/%s/flush", dataset, table))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() == 400 {
		return nil, fmt.Errorf("invalid destination: %s", resp.String())
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 502 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &response.Data, nil
}

// GetBreakers fetches the status of every registered circuit breaker
func (api *TallyAPIClient) GetBreakers() ([]BreakerStatus, error) {
	var response struct {
		Data []BreakerStatus `json:"data"`
	}

	resp, err := api.client.R().
		SetResult(&response).
		Get("/breakers")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Data, nil
}

// AddEntry submits one record for ingestion. Validation failures surface the
// daemon's field-level error text.
func (api *TallyAPIClient) AddEntry(dataset, table string, record map[string]any) (*EntryResult, error) {
	var response struct {
		Data EntryResult `json:"data"`
	}

	payload := map[string]any{
		"table":  table,
		"record": record,
	}
	if dataset != "" {
		payload["dataset"] = dataset
	}

	resp, err := api.client.R().
		SetBody(payload).
		SetResult(&response).
		Post("/entries")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() == 400 || resp.StatusCode() == 422 {
		return nil, fmt.Errorf("entry rejected: %s", resp.String())
	}
	if resp.StatusCode() != 202 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &response.Data, nil
}

// GetLookup reads one cache entry; found=false means a miss, not an error
func (api *TallyAPIClient) GetLookup(namespace, subject string, context []string) (*LookupResult, error) {
	var response struct {
		Data LookupResult `json:"data"`
	}

	req := api.client.R().SetResult(&response)
	if len(context) > 0 {
		req.SetQueryParamsFromValues(url.Values{"context": context})
	}
	resp, err := req.Get(fmt.Sprintf("/lookups/%s/%s", namespace, subject))

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return &response.Data, nil
}

// PutLookup upserts one cache entry with a TTL in hours
func (api *TallyAPIClient) PutLookup(namespace, subject string, context []string, payload json.RawMessage, ttlHours int) error {
	body := map[string]any{
		"namespace": namespace,
		"subject":   subject,
		"payload":   payload,
	}
	if len(context) > 0 {
		body["context"] = context
	}
	if ttlHours > 0 {
		body["ttl_hours"] = ttlHours
	}

	resp, err := api.client.R().
		SetBody(body).
		Post("/lookups")

	if err != nil {
		return fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// CreateAPIClient creates a new Tally API client using current global CLI
// configuration including API address and timeout settings
func CreateAPIClient() *TallyAPIClient {
	return NewTallyAPIClient(config.Global.APIAddr, config.Global.Timeout)
}
