package adapter

import "context"

// RateLimiter guards entry into metered AI operations. Allow consumes one
// token for the user or reports rejection immediately; there is no queuing.
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}
