package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/trace"
)

// RequestLogger opens a span per request and logs the outcome through the
// structured logger instead of gin's text logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := trace.StartSpan(c.Request.Context(), "gateway "+c.Request.Method+" "+route)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, "Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "Request rejected", fields...)
		default:
			logger.Debug(ctx, "Request served", fields...)
		}
	}
}

// RateLimit rejects requests with 429 once l is exhausted. A nil limiter
// lets everything through.
func RateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
