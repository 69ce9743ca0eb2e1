package redis

import (
	"context"
	"fmt"
	"time"

	"video-ai-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter enforces a per-user request cap over a fixed window using
// INCR plus EXPIRE. A fixed window is coarser than a token bucket but the
// counter is shared across replicas, which the in-process bucket cannot be.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := userRateKey(userID)
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}
	return count <= int64(r.limit), nil
}

func userRateKey(userID string) string {
	return fmt.Sprintf("rate_limit:ai:%s", userID)
}
