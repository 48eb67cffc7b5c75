// Package handlers provides HTTP request handlers for the Tally API
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/batch"
)

// Represents the health check response
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	Uptime         string    `json:"uptime"`
	PendingRecords int       `json:"pendingRecords"`
}

// HandleHealth returns the health status of the API server including the
// total number of records still waiting in the write batcher
func HandleHealth(version string, startTime time.Time, batcher *batch.Batcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		uptime := time.Since(startTime)

		pending := 0
		for _, size := range batcher.Sizes() {
			pending += size
		}

		response := HealthResponse{
			Status:         "healthy",
			Timestamp:      time.Now(),
			Version:        version,
			Uptime:         uptime.String(),
			PendingRecords: pending,
		}

		c.JSON(http.StatusOK, response)
	}
}
