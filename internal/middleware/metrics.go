// Package middleware provides Gin HTTP middleware for the audit platform. All
// middleware here is registered in internal/api/router.go before any route
// handlers so every request is covered regardless of handler.
//
// Ordering matters and is enforced in router.go:
//
//	Recovery -> RequestID -> Metrics -> SecurityHeaders -> CORS -> RateLimit -> Handler
//
// Security headers run before rate limiting so they appear on 429 responses
// too; rate limiting runs before any handler work so saturated clients are
// rejected cheaply.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xteam-pro/audit-platform/internal/telemetry"
)

// MetricsMiddleware records request count and latency for every request.
//
// The path label is set from c.FullPath(), the matched Gin route template
// (e.g. /api/v1/audit/status/:id) rather than the raw URL, so per-audit URLs
// do not explode label cardinality. Requests that match no route use the
// literal string "<no-route>".
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
