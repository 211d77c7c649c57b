package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rate_limit:"

// Redis is a shared-store fixed-window limiter for multi-instance
// deployments. The first request in a window creates the counter with
// an expiry equal to the window length; the counter's remaining TTL is
// the retry-after hint.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedis creates a redis-backed limiter allowing max requests per window
func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		max:    max,
		window: window,
	}
}

// Allow counts a request against key's current window
func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := redisKeyPrefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	if count > int64(r.max) {
		ttl, err := r.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
