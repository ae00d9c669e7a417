package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics is Gin middleware that records HTTP request metrics.
// It tracks request count, latency, and in-flight requests by method,
// route pattern, and status code.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath() // Use route pattern, not actual path (avoids cardinality explosion)
		if path == "" {
			path = "unknown" // For NoRoute handler
		}
		if path == "/metrics" {
			// Scrapes would dominate the series otherwise
			c.Next()
			return
		}
		method := c.Request.Method
		start := time.Now()
		HTTPRequestsInFlight.Inc()

		c.Next()

		HTTPRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
