package ratelimit

import (
	"context"
	"sync"
	"time"

	"video-ai-orchestrator/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.RateLimiter = (*Limiter)(nil)

// Limiter is a per-user token bucket limiter. Buckets are created lazily on
// first use and evicted once idle longer than idleTTL or when the bucket map
// reaches maxBuckets.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64 // tokens per minute
	idleTTL  time.Duration
	max      int
	now      func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func NewLimiter(capacity, refillPerMinute int, idleTTL time.Duration, maxBuckets int) *Limiter {
	if capacity <= 0 {
		capacity = 10
	}
	if refillPerMinute <= 0 {
		refillPerMinute = 10
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	if maxBuckets <= 0 {
		maxBuckets = 10000
	}
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(capacity),
		refill:   float64(refillPerMinute),
		idleTTL:  idleTTL,
		max:      maxBuckets,
		now:      time.Now,
	}
}

// Allow consumes one token for the user or rejects immediately; no queuing.
func (l *Limiter) Allow(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[userID]
	if !ok {
		if len(l.buckets) >= l.max {
			l.evictLocked(now)
		}
		b = &bucket{tokens: l.capacity}
		l.buckets[userID] = b
	} else {
		elapsed := now.Sub(b.seen).Minutes()
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Sweep drops idle buckets and returns how many were removed. It is wired to
// a periodic scheduler but safe to call at any time.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evictLocked(l.now())
}

// Len reports the current number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) evictLocked(now time.Time) int {
	removed := 0
	var oldestKey string
	var oldestSeen time.Time
	for k, b := range l.buckets {
		if now.Sub(b.seen) >= l.idleTTL {
			delete(l.buckets, k)
			removed++
			continue
		}
		if oldestKey == "" || b.seen.Before(oldestSeen) {
			oldestKey, oldestSeen = k, b.seen
		}
	}
	// Still at capacity with nothing idle: drop the least recently used
	// bucket so a new user always gets one.
	if removed == 0 && len(l.buckets) >= l.max && oldestKey != "" {
		delete(l.buckets, oldestKey)
		removed++
	}
	return removed
}
