package ratelimit

import (
	"net/http"

	"slotbook/internal/logger"
	"slotbook/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Middleware applies the limiter per client IP within the given scope.
// Limiter backend failures fail open: a broken Redis must not take the
// booking path down with it.
func Middleware(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		if !allowed {
			metrics.RecordRateLimited(scope)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
