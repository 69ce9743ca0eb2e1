package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fixedClock lets tests drive bucket time deterministically.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(capacity, refill int, idleTTL time.Duration, max int) (*Limiter, *fixedClock) {
	l := NewLimiter(capacity, refill, idleTTL, max)
	c := &fixedClock{t: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
	l.now = c.now
	return l, c
}

func TestAllow_EleventhCallRejected(t *testing.T) {
	l, _ := newTestLimiter(10, 10, 10*time.Minute, 100)
	ctx := context.Background()

	rejected := 0
	for i := 0; i < 11; i++ {
		ok, err := l.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !ok {
			rejected++
			if i != 10 {
				t.Fatalf("call %d rejected, want only the 11th", i+1)
			}
		}
	}
	if rejected != 1 {
		t.Fatalf("want exactly one rejection, got %d", rejected)
	}
}

func TestAllow_RefillRestoresTokens(t *testing.T) {
	l, clock := newTestLimiter(10, 10, 10*time.Minute, 100)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow(ctx, "user-1"); !ok {
			t.Fatalf("call %d unexpectedly rejected", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "user-1"); ok {
		t.Fatal("empty bucket must reject")
	}

	// 30 seconds at 10 tokens/minute restores 5 tokens.
	clock.advance(30 * time.Second)
	granted := 0
	for i := 0; i < 6; i++ {
		if ok, _ := l.Allow(ctx, "user-1"); ok {
			granted++
		}
	}
	if granted != 5 {
		t.Fatalf("want 5 grants after partial refill, got %d", granted)
	}
}

func TestAllow_RefillCapsAtCapacity(t *testing.T) {
	l, clock := newTestLimiter(10, 10, time.Hour, 100)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "user-1"); !ok {
		t.Fatal("first call must pass")
	}
	clock.advance(30 * time.Minute)

	granted := 0
	for i := 0; i < 12; i++ {
		if ok, _ := l.Allow(ctx, "user-1"); ok {
			granted++
		}
	}
	if granted != 10 {
		t.Fatalf("refill must cap at capacity: want 10 grants, got %d", granted)
	}
}

func TestAllow_BucketsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, 10, 10*time.Minute, 100)
	ctx := context.Background()

	l.Allow(ctx, "user-1")
	l.Allow(ctx, "user-1")
	if ok, _ := l.Allow(ctx, "user-1"); ok {
		t.Fatal("user-1 should be exhausted")
	}
	if ok, _ := l.Allow(ctx, "user-2"); !ok {
		t.Fatal("user-2 must have a fresh bucket")
	}
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	l, clock := newTestLimiter(10, 10, 10*time.Minute, 100)
	ctx := context.Background()

	l.Allow(ctx, "user-1")
	clock.advance(5 * time.Minute)
	l.Allow(ctx, "user-2")

	clock.advance(5 * time.Minute) // user-1 idle 10m, user-2 idle 5m
	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("want 1 evicted, got %d", removed)
	}
	if l.Len() != 1 {
		t.Fatalf("want 1 live bucket, got %d", l.Len())
	}

	// The surviving bucket keeps its state.
	clock.advance(11 * time.Minute)
	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("want final bucket evicted, got %d", removed)
	}
	if l.Len() != 0 {
		t.Fatalf("want empty map, got %d", l.Len())
	}
}

func TestAllow_EvictsAtMaxBuckets(t *testing.T) {
	l, clock := newTestLimiter(10, 10, 10*time.Minute, 3)
	ctx := context.Background()

	l.Allow(ctx, "user-1")
	clock.advance(time.Minute)
	l.Allow(ctx, "user-2")
	clock.advance(time.Minute)
	l.Allow(ctx, "user-3")
	clock.advance(time.Minute)

	// Map is full and nothing is idle: the least recently seen bucket
	// (user-1) makes way for the newcomer.
	l.Allow(ctx, "user-4")
	if l.Len() != 3 {
		t.Fatalf("want 3 buckets after LRU eviction, got %d", l.Len())
	}

	// user-1 gets a fresh bucket now, so a full burst passes again.
	granted := 0
	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow(ctx, "user-1"); ok {
			granted++
		}
	}
	if granted < 9 {
		t.Fatalf("recreated bucket should be near full, got %d grants", granted)
	}
}
