package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/resilience"
)

// HandleBreakers returns the status of every registered circuit breaker.
// Read-only: reporting never mutates breaker state, so polling this endpoint
// cannot perturb recovery probing.
func HandleBreakers(registry *resilience.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := registry.Statuses()

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   statuses,
			"count":  len(statuses),
		})
	}
}
