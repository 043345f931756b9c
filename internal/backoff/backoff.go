// Package backoff suppresses repeated invocation of a side-effecting
// action within a minimum interval.
package backoff

import (
	"sync"
	"time"
)

type Gate struct {
	Interval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	// now is overridable in tests; nil means time.Now.
	now func() time.Time
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{Interval: interval}
}

// Call runs action unless the previous execution happened less than
// Interval ago. The action runs under the gate's lock so concurrent
// callers see exactly one execution per eligible interval.
func (g *Gate) Call(action func()) {
	now := g.timeNow()

	g.mu.Lock()
	defer g.mu.Unlock()

	if now.Before(g.lastCall.Add(g.Interval)) {
		return
	}
	g.lastCall = now
	action()
}

func (g *Gate) timeNow() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}
