package util

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterRegistry hands out one token bucket per key, typically a client
// address, and forgets buckets idle for longer than ttl.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLimiterRegistry creates a registry allowing r events per second with
// bursts of b for each key.
func NewLimiterRegistry(r float64, b int, ttl time.Duration) *LimiterRegistry {
	return &LimiterRegistry{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(r),
		burst:    b,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether one more event for key may happen now. Idle buckets
// are swept on the way.
func (r *LimiterRegistry) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rate, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastUsed = now
	return entry.limiter.AllowN(now, 1)
}

// Len returns the number of live buckets.
func (r *LimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *LimiterRegistry) sweep(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for key, entry := range r.limiters {
		if now.Sub(entry.lastUsed) > r.ttl {
			delete(r.limiters, key)
		}
	}
}
