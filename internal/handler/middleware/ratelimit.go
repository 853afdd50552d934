package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sushibar/waitline/internal/config"
	"sushibar/waitline/internal/repository"
	"sushibar/waitline/pkg/response"
)

// RateLimit bounds join volume per client IP with a fixed-window counter.
// It protects against a flooded walk-in form, not against state-machine
// races; those are handled by the store's guarded writes.
func RateLimit(cfg config.RateLimitConfig, store repository.LimiterStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:join:%s", c.ClientIP())
		count, err := store.Incr(c.Request.Context(), key, cfg.Window)
		if err != nil {
			// A broken limiter backend should not take the waitlist down.
			logger.Warn("rate limiter unavailable, letting request through", zap.Error(err))
			c.Next()
			return
		}
		if count > cfg.Limit {
			response.TooManyRequests(c, "Too many requests - please try again shortly.")
			c.Abort()
			return
		}
		c.Next()
	}
}
