// Package ratelimit throttles repeated attempts per key with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Ensure KeyedLimiter implements the interface.
var _ driven.AttemptLimiter = (*KeyedLimiter)(nil)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter allows a burst of attempts per key, refilled evenly over a window.
// With 5 attempts per 15 minutes a key may try five times at once and then
// gains one attempt every three minutes.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
}

// NewKeyedLimiter creates a limiter allowing attempts per window for each key.
func NewKeyedLimiter(attempts int, window time.Duration) *KeyedLimiter {
	if attempts < 1 {
		attempts = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &KeyedLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Every(window / time.Duration(attempts)),
		burst:   attempts,
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one attempt for the key and reports whether it is permitted.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Reset forgets the history of a key.
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Sweep drops keys idle for a full window, whose buckets are refilled anyway.
// Returns the number of keys removed.
func (l *KeyedLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
