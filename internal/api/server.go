// Package api provides the HTTP API server for the Tally data-entry service.
// This server exposes the chat webhook, entry ingestion, batch and breaker
// observability, and lookup cache endpoints via REST, allowing the chat
// platform and operator tools to drive the service without direct warehouse
// access.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/api/handlers"
	"github.com/tallydesk/tally/internal/logging"
	"github.com/tallydesk/tally/internal/version"
)

// Represents the Tally API server
type Server struct {
	config     *Config
	httpServer *http.Server
}

// NewServer creates a new Tally API server instance
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		config: config,
	}
}

// Start starts the Tally API server
func (s *Server) Start() error {
	logging.Info("Starting HTTP API server on %s:%d", s.config.BindAddr, s.config.BindPort)

	// Create Gin router
	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	// Add middleware
	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	// Setup routes
	s.setupRoutes(router)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.BindAddr, s.config.BindPort),
		Handler: router,
		// Timeouts for production
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Test binding first to catch errors immediately
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}
	listener.Close() // Close the test listener

	// Start server in goroutine now that we know binding works
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Track server start time for uptime calculation
var startTime = time.Now()

// handleHealth delegates to handlers.HandleHealth
func (s *Server) handleHealth(c *gin.Context) {
	handler := s.getHandlerHealth()
	handler(c)
}

// getHandlerHealth is a health endpoint handler factory
func (s *Server) getHandlerHealth() gin.HandlerFunc {
	return handlers.HandleHealth(version.TallydVersion, startTime, s.config.Batcher)
}

// handleCreateEntry delegates to handlers.HandleCreateEntry
func (s *Server) handleCreateEntry(c *gin.Context) {
	handler := s.getHandlerCreateEntry()
	handler(c)
}

// getHandlerCreateEntry is an entry ingestion handler factory
func (s *Server) getHandlerCreateEntry() gin.HandlerFunc {
	return handlers.HandleCreateEntry(s.config.Batcher, s.config.Contexts, s.config.Dataset, s.config.Checker)
}

// handleBatchSizes delegates to handlers.HandleBatchSizes
func (s *Server) handleBatchSizes(c *gin.Context) {
	handler := s.getHandlerBatchSizes()
	handler(c)
}

// getHandlerBatchSizes is a batch observability handler factory
func (s *Server) getHandlerBatchSizes() gin.HandlerFunc {
	return handlers.HandleBatchSizes(s.config.Batcher)
}

// handleFlushAll delegates to handlers.HandleFlushAll
func (s *Server) handleFlushAll(c *gin.Context) {
	handler := s.getHandlerFlushAll()
	handler(c)
}

// getHandlerFlushAll is a flush-everything handler factory
func (s *Server) getHandlerFlushAll() gin.HandlerFunc {
	return handlers.HandleFlushAll(s.config.Batcher)
}

// handleFlushTable delegates to handlers.HandleFlushTable
func (s *Server) handleFlushTable(c *gin.Context) {
	handler := s.getHandlerFlushTable()
	handler(c)
}

// getHandlerFlushTable is a single-destination flush handler factory
func (s *Server) getHandlerFlushTable() gin.HandlerFunc {
	return handlers.HandleFlushTable(s.config.Batcher)
}

// handleBreakers delegates to handlers.HandleBreakers
func (s *Server) handleBreakers(c *gin.Context) {
	handler := s.getHandlerBreakers()
	handler(c)
}

// getHandlerBreakers is a breaker status handler factory
func (s *Server) getHandlerBreakers() gin.HandlerFunc {
	return handlers.HandleBreakers(s.config.Breakers)
}

// handleGetLookup delegates to handlers.HandleGetLookup
func (s *Server) handleGetLookup(c *gin.Context) {
	handler := s.getHandlerGetLookup()
	handler(c)
}

// getHandlerGetLookup is a cache read handler factory
func (s *Server) getHandlerGetLookup() gin.HandlerFunc {
	return handlers.HandleGetLookup(s.config.Store)
}

// handlePutLookup delegates to handlers.HandlePutLookup
func (s *Server) handlePutLookup(c *gin.Context) {
	handler := s.getHandlerPutLookup()
	handler(c)
}

// getHandlerPutLookup is a cache upsert handler factory
func (s *Server) getHandlerPutLookup() gin.HandlerFunc {
	return handlers.HandlePutLookup(s.config.Store)
}

// handleWebhook delegates to handlers.HandleWebhook
func (s *Server) handleWebhook(c *gin.Context) {
	handler := s.getHandlerWebhook()
	handler(c)
}

// getHandlerWebhook is a chat webhook handler factory
func (s *Server) getHandlerWebhook() gin.HandlerFunc {
	return handlers.HandleWebhook(s.config.Batcher, s.config.Contexts, s.config.Dataset, s.config.Checker, s.config.Breakers, s.config.Notifier)
}
