package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// API version prefix
	v1 := router.Group("/api/v1")

	// Health check endpoint
	v1.GET("/health", s.handleHealth)

	// Entry ingestion endpoint
	v1.POST("/entries", s.handleCreateEntry)

	// Batch observability and flush endpoints
	batches := v1.Group("/batches")
	{
		batches.GET("", s.handleBatchSizes)
		batches.POST("/flush", s.handleFlushAll)
		batches.POST("/:dataset/:table/flush", s.handleFlushTable)
	}

	// Circuit breaker status endpoint
	v1.GET("/breakers", s.handleBreakers)

	// Lookup cache endpoints
	lookups := v1.Group("/lookups")
	{
		lookups.GET("/:namespace/:subject", s.handleGetLookup)
		lookups.POST("", s.handlePutLookup)
	}

	// Inbound chat platform webhook
	v1.POST("/webhook", s.handleWebhook)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
