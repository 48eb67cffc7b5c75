package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallydesk/tally/internal/logging"
)

// loggingMiddleware provides request logging. Health and metrics polls are
// demoted to DEBUG so scrapers don't drown out webhook and entry traffic.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logFn := logging.Info
		if param.Path == "/api/v1/health" || param.Path == "/metrics" {
			logFn = logging.Debug
		}
		logFn("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
		return ""
	})
}

// corsMiddleware provides CORS headers for browser-based dashboards. The API
// surface is read/ingest only, so mutating verbs beyond POST are not offered.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		c.Header("Access-Control-Max-Age", "300")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
