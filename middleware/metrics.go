package middleware

import (
	"bitwise74/finance-api/metrics"
	"time"

	"github.com/gin-gonic/gin"
)

// NewMetricsMiddleware records the duration of every request by route
func NewMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
