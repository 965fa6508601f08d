package middleware

import (
	"time"

	"github.com/GoCowSwap/cowgate/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		// Route template, not the raw path, so latency buckets do not
		// explode on parameterized routes.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		metrics.LatencyBucket.WithLabelValues(endpoint).Observe(duration)
	}
}
