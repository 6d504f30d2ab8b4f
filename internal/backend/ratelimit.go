package backend

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter implements per-backend token-bucket rate limiting.
// Backends without a configured rate are unlimited.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates an empty limiter set.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetRate configures the limit for a backend. A non-positive rate
// removes the limit.
func (l *RateLimiter) SetRate(name string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if requestsPerSecond <= 0 {
		delete(l.limiters, name)
		return
	}
	if burst <= 0 {
		burst = 1
	}
	l.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the backend's limiter clears the request or the
// context is done.
func (l *RateLimiter) Wait(ctx context.Context, name string) error {
	l.mu.RLock()
	limiter, exists := l.limiters[name]
	l.mu.RUnlock()

	if !exists {
		return nil
	}
	return limiter.Wait(ctx)
}

// Allow checks clearance without waiting.
func (l *RateLimiter) Allow(name string) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[name]
	l.mu.RUnlock()

	if !exists {
		return true
	}
	return limiter.Allow()
}
