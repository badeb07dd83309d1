package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Budget caps how many posts a single invocation may publish and spaces
// consecutive publishes out. A cold ledger would otherwise announce the
// whole feed in one burst.
type Budget struct {
	mu        sync.Mutex
	maxPosts  int // 0 = unlimited
	delay     time.Duration
	postCount int
	lastPost  time.Time
}

func NewBudget(maxPosts int, delay time.Duration) *Budget {
	return &Budget{
		maxPosts: maxPosts,
		delay:    delay,
	}
}

// CanPost reports whether the per-run budget still allows a publish.
func (b *Budget) CanPost() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxPosts > 0 && b.postCount >= b.maxPosts {
		log.Printf("Post budget reached (%d/%d), skipping remaining trends", b.postCount, b.maxPosts)
		return false
	}
	return true
}

// Wait blocks until the minimum spacing since the previous publish has
// elapsed, or ctx is cancelled.
func (b *Budget) Wait(ctx context.Context) error {
	b.mu.Lock()
	var wait time.Duration
	if !b.lastPost.IsZero() && b.delay > 0 {
		if elapsed := time.Since(b.lastPost); elapsed < b.delay {
			wait = b.delay - elapsed
		}
	}
	b.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// RecordPost counts one published post against the budget.
func (b *Budget) RecordPost() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.postCount++
	b.lastPost = time.Now()
}

func (b *Budget) Stats() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]int{
		"posts_used": b.postCount,
		"posts_max":  b.maxPosts,
	}
}
