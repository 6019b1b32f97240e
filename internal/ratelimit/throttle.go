// Package ratelimit serializes calls to quota-constrained providers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between calls per provider key.
// State is process-wide; concurrent callers on the same key are
// serialized, callers on different keys never block each other.
type Throttle struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	intervals map[string]time.Duration
	fallback  time.Duration
}

// New creates a throttle. fallback is the minimum interval applied to
// keys without an explicit interval; zero means unthrottled.
func New(fallback time.Duration) *Throttle {
	return &Throttle{
		limiters:  make(map[string]*rate.Limiter),
		intervals: make(map[string]time.Duration),
		fallback:  fallback,
	}
}

// SetInterval configures the minimum interval for a provider key.
// Must be called before the first Wait on that key to take effect.
func (t *Throttle) SetInterval(key string, interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.intervals[key] = interval
	delete(t.limiters, key)
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.limiters[key]; ok {
		return l
	}

	interval, ok := t.intervals[key]
	if !ok {
		interval = t.fallback
	}

	var l *rate.Limiter
	if interval <= 0 {
		l = rate.NewLimiter(rate.Inf, 1)
	} else {
		l = rate.NewLimiter(rate.Every(interval), 1)
	}
	t.limiters[key] = l
	return l
}

// Wait blocks until the provider's interval has elapsed since its last
// call. It only fails when the context is cancelled.
func (t *Throttle) Wait(ctx context.Context, key string) error {
	return t.limiter(key).Wait(ctx)
}
