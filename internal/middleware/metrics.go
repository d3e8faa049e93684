package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/service"
)

// Metrics observes method, route template, status and latency for every
// request. The route template is used so /sessions/:id stays one series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
