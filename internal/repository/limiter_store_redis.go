package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiterStore struct {
	client *redis.Client
}

func NewRedisLimiterStore(client *redis.Client) LimiterStore {
	return &redisLimiterStore{client: client}
}

func (s *redisLimiterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
