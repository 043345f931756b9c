package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(maxAttempts int, window time.Duration) (*Limiter, *time.Time) {
	current := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(maxAttempts, window)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestLimiter_AllowsUpToMaxAttempts(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		assert.False(t, l.IsLimited("login:alice"), "attempt %d should pass", i+1)
	}
	assert.True(t, l.IsLimited("login:alice"))
	assert.True(t, l.IsLimited("login:alice"))
}

func TestLimiter_WindowExpiryResets(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(5, 15*time.Minute)

	for i := 0; i < 6; i++ {
		l.IsLimited("login:alice")
	}
	require.True(t, l.IsLimited("login:alice"))

	*current = current.Add(15*time.Minute + time.Second)

	assert.False(t, l.IsLimited("login:alice"))

	// fresh window counts from one again
	for i := 0; i < 4; i++ {
		assert.False(t, l.IsLimited("login:alice"))
	}
	assert.True(t, l.IsLimited("login:alice"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(2, time.Minute)

	l.IsLimited("login:alice")
	l.IsLimited("login:alice")
	require.True(t, l.IsLimited("login:alice"))

	assert.False(t, l.IsLimited("login:bob"))
}

func TestLimiter_Reset(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(2, time.Minute)

	l.IsLimited("login:alice")
	l.IsLimited("login:alice")
	require.True(t, l.IsLimited("login:alice"))

	l.Reset("login:alice")
	assert.False(t, l.IsLimited("login:alice"))
}

func TestLimiter_CleanupDropsExpiredEntries(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(5, 15*time.Minute)

	l.IsLimited("login:alice")
	*current = current.Add(10 * time.Minute)
	l.IsLimited("login:bob")

	*current = current.Add(6 * time.Minute)
	l.Cleanup()

	l.mu.Lock()
	_, aliceKept := l.entries["login:alice"]
	_, bobKept := l.entries["login:bob"]
	l.mu.Unlock()

	assert.False(t, aliceKept)
	assert.True(t, bobKept)
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.IsLimited("shared")
			}
		}()
	}
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Equal(t, 500, l.entries["shared"].attempts)
}
