package redis

import (
	"context"
	"time"
)

// RateLimiter is a fixed-window counter used to cap how often a user may
// start a generation. Generation is expensive server-side; the orchestrator
// already allows one active job, this guards against rapid start/cancel
// churn.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

func StartRateKey(userID string) string {
	return "rate_limit:start:" + userID
}
