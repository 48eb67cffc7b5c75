package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/cache"
	"github.com/tallydesk/tally/internal/config"
	"github.com/tallydesk/tally/internal/logging"
)

// LookupRequest is the cache upsert payload. TTLHours falls back to the
// service default when omitted or non-positive.
type LookupRequest struct {
	Namespace string          `json:"namespace" binding:"required"`
	Subject   string          `json:"subject" binding:"required"`
	Context   []string        `json:"context,omitempty"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
	TTLHours  int             `json:"ttl_hours,omitempty"`
}

// HandleGetLookup reads one cache entry. A miss (absent or expired) is a
// normal outcome and responds 200 with found=false and a null payload;
// only storage failures respond with an error status.
func HandleGetLookup(store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cache.Key(c.Param("namespace"), c.Param("subject"), c.QueryArray("context")...)

		payload, err := store.Get(c.Request.Context(), key)
		if err != nil {
			logging.Error("API: Cache read for %s failed: %v", key, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"key":     key,
				"found":   payload != nil,
				"payload": payload,
			},
		})
	}
}

// HandlePutLookup upserts one cache entry with a TTL in hours
func HandlePutLookup(store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}

		ttl := req.TTLHours
		if ttl <= 0 {
			ttl = config.DefaultCacheTTLHours
		}

		key := cache.Key(req.Namespace, req.Subject, req.Context...)
		if err := store.Put(c.Request.Context(), key, req.Payload, ttl); err != nil {
			logging.Error("API: Cache write for %s failed: %v", key, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"key":       key,
				"ttl_hours": ttl,
			},
		})
	}
}
