package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ninlil/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its full burst
	Reset()
}

// TokenBucket is a token bucket limiter refilled continuously at a fixed rate
type TokenBucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	every   rate.Limit
	burst   int
}

// NewTokenBucket allows burst requests at once and then one request per interval
func NewTokenBucket(burst int, interval time.Duration) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(limit, burst),
		every:   limit,
		burst:   burst,
	}
}

// NewPerMinute creates a limiter allowing requestsPerMinute with the given burst.
// A non-positive rate disables limiting.
func NewPerMinute(requestsPerMinute, burst int) *TokenBucket {
	if requestsPerMinute <= 0 {
		return NewTokenBucket(burst, 0)
	}
	return NewTokenBucket(burst, time.Minute/time.Duration(requestsPerMinute))
}

// FromSettings builds the shared API limiter from configuration
func FromSettings(rc config.RateLimitConfig) *TokenBucket {
	return NewPerMinute(rc.RequestsPerMinute, rc.BurstSize)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Reset restores the full burst
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(tb.every, tb.burst)
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}
