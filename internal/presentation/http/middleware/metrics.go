package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/pkg/metrics"
)

// MetricsMiddleware records request counts and latencies by route template.
func MetricsMiddleware(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
