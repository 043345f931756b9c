// Package ratelimit bounds repeated attempts per key inside a sliding
// time window. State is process-local; every call works on the shared
// map under a single mutex with short critical sections and never
// blocks on I/O.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	attempts    int
	windowStart time.Time
}

type Limiter struct {
	MaxAttempts int
	Window      time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	// now is overridable in tests; nil means time.Now.
	now func() time.Time
}

func NewLimiter(maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		MaxAttempts: maxAttempts,
		Window:      window,
		entries:     make(map[string]*entry),
	}
}

// IsLimited records an attempt for key and reports whether the caller
// must be rejected. A rejected attempt does not extend the window.
func (l *Limiter) IsLimited(key string) bool {
	now := l.timeNow()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		l.entries[key] = &entry{attempts: 1, windowStart: now}
		return false
	}

	if now.Sub(e.windowStart) > l.Window {
		e.attempts = 1
		e.windowStart = now
		return false
	}

	if e.attempts >= l.MaxAttempts {
		return true
	}

	e.attempts++
	return false
}

// Reset forgets every recorded attempt for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Cleanup drops entries whose window has elapsed; meant to run
// periodically so idle keys do not accumulate.
func (l *Limiter) Cleanup() {
	now := l.timeNow()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.Sub(e.windowStart) > l.Window {
			delete(l.entries, key)
		}
	}
}

func (l *Limiter) timeNow() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
