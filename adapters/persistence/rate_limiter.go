package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RedisRateLimiter counts hits per key in fixed windows.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) (*RedisRateLimiter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	if max <= 0 {
		return nil, fmt.Errorf("rate limit max requests must be positive, got %d", max)
	}
	return &RedisRateLimiter{client: client, window: window, max: max}, nil
}

// Allow records one hit for key and reports whether it is within the limit,
// along with the hits left in the current window.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit counter failed: %w", err)
	}

	count := int(incr.Val())
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.max, remaining, nil
}
