package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/batch"
	"github.com/tallydesk/tally/internal/bot"
	"github.com/tallydesk/tally/internal/cache"
	"github.com/tallydesk/tally/internal/resilience"
	"github.com/tallydesk/tally/internal/rules"
	"github.com/tallydesk/tally/internal/validate"
	"github.com/tallydesk/tally/internal/warehouse"
)

// fakeWarehouse records bulk inserts and can fail specific tables
type fakeWarehouse struct {
	insertCalls []fakeInsert
	failTable   string
}

type fakeInsert struct {
	dataset string
	table   string
	rows    []warehouse.Row
}

func (f *fakeWarehouse) InsertRows(ctx context.Context, dataset, table string, rows []warehouse.Row) error {
	if table == f.failTable {
		return errors.New("warehouse unavailable")
	}
	f.insertCalls = append(f.insertCalls, fakeInsert{dataset: dataset, table: table, rows: rows})
	return nil
}

func (f *fakeWarehouse) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeWarehouse) Exec(ctx context.Context, query string, args ...any) error {
	return errors.New("not implemented")
}

// fakeNotifier records outbound chat messages
type fakeNotifier struct {
	sent []bot.Message
}

func (f *fakeNotifier) Send(ctx context.Context, msg bot.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

// testContexts returns the validation contexts used across handler tests
func testContexts() map[string]validate.EntryContext {
	return map[string]validate.EntryContext{
		"expenses": {
			Table: "expenses",
			Fields: []validate.FieldRule{
				{Name: "vendor", Kind: validate.KindText, Required: true},
				{Name: "amount", Kind: validate.KindAmount, Required: true},
				{Name: "txn_date", Kind: validate.KindDate},
			},
		},
	}
}

// performJSON runs one JSON request through a router and returns the recorder
func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// TestHandleHealth tests the health endpoint reports pending records
func TestHandleHealth(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "acme"})

	router := newRouter()
	router.GET("/health", HandleHealth("0.1.0-test", time.Now(), batcher))

	w := performJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if response.PendingRecords != 1 {
		t.Errorf("Expected 1 pending record, got %d", response.PendingRecords)
	}
}

// TestHandleCreateEntry tests successful ingestion through the REST surface
func TestHandleCreateEntry(t *testing.T) {
	wh := &fakeWarehouse{}
	batcher := batch.New(wh, nil)

	router := newRouter()
	router.POST("/entries", HandleCreateEntry(batcher, testContexts(), "ops", rules.NewChecker()))

	w := performJSON(t, router, http.MethodPost, "/entries", EntryRequest{
		Table:  "expenses",
		Record: map[string]any{"vendor": "acme", "amount": "12.50"},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	if got := batcher.Len("ops", "expenses"); got != 1 {
		t.Errorf("Expected 1 queued record, got %d", got)
	}
	if len(wh.insertCalls) != 0 {
		t.Errorf("Expected no warehouse call below the flush threshold, got %d", len(wh.insertCalls))
	}
}

// TestHandleCreateEntry_ValidationFailure tests the 422 path and user message
func TestHandleCreateEntry_ValidationFailure(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)

	router := newRouter()
	router.POST("/entries", HandleCreateEntry(batcher, testContexts(), "ops", rules.NewChecker()))

	w := performJSON(t, router, http.MethodPost, "/entries", EntryRequest{
		Table:  "expenses",
		Record: map[string]any{"vendor": "acme", "amount": "twelve"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "amount") {
		t.Errorf("Expected failing field in response, got %s", w.Body.String())
	}
	if batcher.Len("ops", "expenses") != 0 {
		t.Error("Expected rejected record not to be queued")
	}
}

// TestHandleCreateEntry_UnknownTable tests rejection of unregistered tables
func TestHandleCreateEntry_UnknownTable(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)

	router := newRouter()
	router.POST("/entries", HandleCreateEntry(batcher, testContexts(), "ops", rules.NewChecker()))

	w := performJSON(t, router, http.MethodPost, "/entries", EntryRequest{
		Table:  "invoices",
		Record: map[string]any{"vendor": "acme"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422 for unknown table, got %d", w.Code)
	}
}

// TestHandleCreateEntry_ThresholdFlush tests the proactive flush when the
// batch reaches the configured size
func TestHandleCreateEntry_ThresholdFlush(t *testing.T) {
	wh := &fakeWarehouse{}
	batcher := batch.New(wh, &batch.Config{MaxBatchSize: 2})

	router := newRouter()
	router.POST("/entries", HandleCreateEntry(batcher, testContexts(), "ops", rules.NewChecker()))

	for i := 0; i < 2; i++ {
		w := performJSON(t, router, http.MethodPost, "/entries", EntryRequest{
			Table:  "expenses",
			Record: map[string]any{"vendor": fmt.Sprintf("vendor-%d", i), "amount": "10"},
		})
		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected status 202 on insert %d, got %d", i, w.Code)
		}
	}

	if len(wh.insertCalls) != 1 {
		t.Fatalf("Expected one flush at the threshold, got %d", len(wh.insertCalls))
	}
	if got := len(wh.insertCalls[0].rows); got != 2 {
		t.Errorf("Expected 2 rows in threshold flush, got %d", got)
	}
	if batcher.Len("ops", "expenses") != 0 {
		t.Errorf("Expected batch cleared after threshold flush, got %d", batcher.Len("ops", "expenses"))
	}
}

// TestHandleBatchSizes tests the pending-count listing
func TestHandleBatchSizes(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "acme"})
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "globex"})
	batcher.Insert("crm", "deals", warehouse.Row{"name": "renewal"})

	router := newRouter()
	router.GET("/batches", HandleBatchSizes(batcher))

	w := performJSON(t, router, http.MethodGet, "/batches", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Data  []BatchSize `json:"data"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	expected := []BatchSize{
		{Dataset: "crm", Table: "deals", Pending: 1},
		{Dataset: "ops", Table: "expenses", Pending: 2},
	}
	if !reflect.DeepEqual(response.Data, expected) {
		t.Errorf("Expected sorted sizes %v, got %v", expected, response.Data)
	}
}

// TestHandleFlushTable tests flush outcomes and their HTTP status mapping
func TestHandleFlushTable(t *testing.T) {
	wh := &fakeWarehouse{failTable: "invoices"}
	batcher := batch.New(wh, nil)
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "acme"})
	batcher.Insert("ops", "invoices", warehouse.Row{"vendor": "acme"})

	router := newRouter()
	router.POST("/batches/:dataset/:table/flush", HandleFlushTable(batcher))

	// Successful flush
	w := performJSON(t, router, http.MethodPost, "/batches/ops/expenses/flush", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for flushed batch, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(batch.StatusFlushed)) {
		t.Errorf("Expected flushed outcome, got %s", w.Body.String())
	}

	// Failed flush retains rows and maps to 502
	w = performJSON(t, router, http.MethodPost, "/batches/ops/invoices/flush", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 for retained batch, got %d", w.Code)
	}
	if batcher.Len("ops", "invoices") != 1 {
		t.Error("Expected failed flush to retain rows")
	}

	// Empty flush is fine
	w = performJSON(t, router, http.MethodPost, "/batches/ops/expenses/flush", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for empty batch, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(batch.StatusEmpty)) {
		t.Errorf("Expected empty outcome, got %s", w.Body.String())
	}

	// Invalid destination names are rejected before touching the batcher
	w = performJSON(t, router, http.MethodPost, "/batches/Ops/expenses/flush", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid dataset, got %d", w.Code)
	}
}

// TestHandleFlushAll tests independent per-destination outcomes
func TestHandleFlushAll(t *testing.T) {
	wh := &fakeWarehouse{failTable: "invoices"}
	batcher := batch.New(wh, nil)
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "acme"})
	batcher.Insert("ops", "invoices", warehouse.Row{"vendor": "acme"})

	router := newRouter()
	router.POST("/batches/flush", HandleFlushAll(batcher))

	w := performJSON(t, router, http.MethodPost, "/batches/flush", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Data     map[string]FlushOutcome `json:"data"`
		Retained int                     `json:"retained"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Data["ops.expenses"].Status != string(batch.StatusFlushed) {
		t.Errorf("Expected ops.expenses flushed, got %+v", response.Data["ops.expenses"])
	}
	if response.Data["ops.invoices"].Status != string(batch.StatusRetained) {
		t.Errorf("Expected ops.invoices retained, got %+v", response.Data["ops.invoices"])
	}
	if response.Retained != 1 {
		t.Errorf("Expected 1 retained destination, got %d", response.Retained)
	}
}

// TestHandleBreakers tests the read-only breaker status endpoint
func TestHandleBreakers(t *testing.T) {
	registry := resilience.NewRegistry(resilience.DefaultBreakerOptions())
	registry.Get("warehouse")

	router := newRouter()
	router.GET("/breakers", HandleBreakers(registry))

	w := performJSON(t, router, http.MethodGet, "/breakers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Data  []resilience.BreakerStatus `json:"data"`
		Count int                        `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Count != 1 || response.Data[0].Name != "warehouse" {
		t.Errorf("Expected one warehouse breaker, got %+v", response.Data)
	}
	if response.Data[0].State != resilience.StateClosed {
		t.Errorf("Expected CLOSED state, got %s", response.Data[0].State)
	}
}

// TestHandleLookups tests cache upsert and read through the API
func TestHandleLookups(t *testing.T) {
	store := cache.NewMemoryStore()

	router := newRouter()
	router.GET("/lookups/:namespace/:subject", HandleGetLookup(store))
	router.POST("/lookups", HandlePutLookup(store))

	w := performJSON(t, router, http.MethodPost, "/lookups", LookupRequest{
		Namespace: "vendor",
		Subject:   "acme",
		Context:   []string{"billing"},
		Payload:   json.RawMessage(`{"terms":"net30"}`),
		TTLHours:  12,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for upsert, got %d: %s", w.Code, w.Body.String())
	}

	w = performJSON(t, router, http.MethodGet, "/lookups/vendor/acme?context=billing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for read, got %d", w.Code)
	}

	var response struct {
		Data struct {
			Key     string          `json:"key"`
			Found   bool            `json:"found"`
			Payload json.RawMessage `json:"payload"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Data.Key != "vendor:acme:billing" {
		t.Errorf("Expected key vendor:acme:billing, got %s", response.Data.Key)
	}
	if !response.Data.Found || !strings.Contains(string(response.Data.Payload), "net30") {
		t.Errorf("Expected cached payload, got %+v", response.Data)
	}

	// Miss is a normal outcome, not an error
	w = performJSON(t, router, http.MethodGet, "/lookups/vendor/unknown", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for miss, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Data.Found {
		t.Error("Expected found=false for miss")
	}
}

// TestHandleWebhook_Add tests entry ingestion through a chat command
func TestHandleWebhook_Add(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)
	notifier := &fakeNotifier{}
	registry := resilience.NewRegistry(resilience.DefaultBreakerOptions())

	router := newRouter()
	router.POST("/webhook", HandleWebhook(batcher, testContexts(), "ops", rules.NewChecker(), registry, notifier))

	w := performJSON(t, router, http.MethodPost, "/webhook", WebhookRequest{
		Channel:  "#finance-ops",
		ThreadID: "t-9",
		Text:     `add expenses vendor="acme corp" amount=12.50`,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if batcher.Len("ops", "expenses") != 1 {
		t.Errorf("Expected 1 queued record, got %d", batcher.Len("ops", "expenses"))
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("Expected one reply, got %d", len(notifier.sent))
	}
	reply := notifier.sent[0]
	if reply.Channel != "#finance-ops" || reply.ThreadID != "t-9" {
		t.Errorf("Expected reply addressed to the originating thread, got %+v", reply)
	}
	if !strings.Contains(reply.Text, "Recorded entry") {
		t.Errorf("Expected confirmation reply, got %q", reply.Text)
	}
}

// TestHandleWebhook_ValidationReply tests that failures reply with the stable
// user message while the webhook still acknowledges the platform
func TestHandleWebhook_ValidationReply(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)
	notifier := &fakeNotifier{}
	registry := resilience.NewRegistry(resilience.DefaultBreakerOptions())

	router := newRouter()
	router.POST("/webhook", HandleWebhook(batcher, testContexts(), "ops", rules.NewChecker(), registry, notifier))

	w := performJSON(t, router, http.MethodPost, "/webhook", WebhookRequest{
		Channel: "#finance-ops",
		Text:    "add expenses vendor=acme amount=lots",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 even for rejected entries, got %d", w.Code)
	}
	if batcher.Len("ops", "expenses") != 0 {
		t.Error("Expected invalid record not to be queued")
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].Text, "invalid") {
		t.Errorf("Expected validation reply, got %+v", notifier.sent)
	}
}

// TestHandleWebhook_StatusAndFlush tests the operational chat commands
func TestHandleWebhook_StatusAndFlush(t *testing.T) {
	wh := &fakeWarehouse{}
	batcher := batch.New(wh, nil)
	batcher.Insert("ops", "expenses", warehouse.Row{"vendor": "acme"})
	notifier := &fakeNotifier{}
	registry := resilience.NewRegistry(resilience.DefaultBreakerOptions())

	router := newRouter()
	router.POST("/webhook", HandleWebhook(batcher, testContexts(), "ops", rules.NewChecker(), registry, notifier))

	w := performJSON(t, router, http.MethodPost, "/webhook", WebhookRequest{
		Channel: "#finance-ops",
		Text:    "status",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(notifier.sent[0].Text, "ops.expenses=1") {
		t.Errorf("Expected pending count in status reply, got %q", notifier.sent[0].Text)
	}

	w = performJSON(t, router, http.MethodPost, "/webhook", WebhookRequest{
		Channel: "#finance-ops",
		Text:    "flush",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(notifier.sent[1].Text, "Flushed 1 records") {
		t.Errorf("Expected flush summary, got %q", notifier.sent[1].Text)
	}
	if len(wh.insertCalls) != 1 {
		t.Errorf("Expected one warehouse call from flush command, got %d", len(wh.insertCalls))
	}
}

// TestHandleWebhook_UnknownCommand tests the usage fallback
func TestHandleWebhook_UnknownCommand(t *testing.T) {
	batcher := batch.New(&fakeWarehouse{}, nil)
	notifier := &fakeNotifier{}
	registry := resilience.NewRegistry(resilience.DefaultBreakerOptions())

	router := newRouter()
	router.POST("/webhook", HandleWebhook(batcher, testContexts(), "ops", rules.NewChecker(), registry, notifier))

	w := performJSON(t, router, http.MethodPost, "/webhook", WebhookRequest{
		Channel: "#finance-ops",
		Text:    "destroy everything",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(notifier.sent[0].Text, "Commands:") {
		t.Errorf("Expected usage reply, got %q", notifier.sent[0].Text)
	}
}

// TestSplitArgs tests chat command tokenization including quoted values
func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple", "add expenses vendor=acme", []string{"add", "expenses", "vendor=acme"}},
		{"quoted value", `add expenses vendor="acme corp"`, []string{"add", "expenses", "vendor=acme corp"}},
		{"empty quoted value", `add expenses notes=""`, []string{"add", "expenses", "notes="}},
		{"extra whitespace", "  flush   now ", []string{"flush", "now"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitArgs(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitArgs(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
