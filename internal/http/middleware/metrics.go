package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/metrics"
)

// Metrics records latency per route template, not per raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.HTTPRequestsInFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
