package repository

import (
	"context"
	"time"
)

// LimiterStore counts requests in fixed windows for the join rate limiter.
// Implementations: Redis (shared across instances) or in-memory (single instance).
type LimiterStore interface {
	// Incr increments the counter for key and returns the new value.
	// The first increment of a window starts its expiry clock.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
