package preload

import (
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting for speculative
// preload requests. Excess requests are silently dropped.
type RateLimiter struct {
	mu            sync.Mutex
	ratePerSecond float64
	tokens        float64
	lastRefill    time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(ratePerSecond float64) *RateLimiter {
	return &RateLimiter{
		ratePerSecond: ratePerSecond,
		tokens:        ratePerSecond, // Start with full bucket
		lastRefill:    time.Now(),
	}
}

// Allow returns true if a speculative preload is allowed.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()

	r.tokens += elapsed * r.ratePerSecond
	if r.tokens > r.ratePerSecond {
		r.tokens = r.ratePerSecond // Cap at max bucket size
	}
	r.lastRefill = now

	if r.tokens >= 1.0 {
		r.tokens -= 1.0
		return true
	}
	return false
}

// Semaphore limits concurrent speculative preloads without blocking.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a new semaphore with the given limit.
func NewSemaphore(limit int) *Semaphore {
	return &Semaphore{
		ch: make(chan struct{}, limit),
	}
}

// Acquire tries to acquire a slot. Returns false immediately when full.
func (s *Semaphore) Acquire() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release releases a slot.
func (s *Semaphore) Release() {
	select {
	case <-s.ch:
	default:
	}
}
