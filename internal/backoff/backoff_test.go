package backoff

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_SuppressesWithinInterval(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(60 * time.Second)
	g.now = func() time.Time { return current }

	calls := 0
	g.Call(func() { calls++ })
	current = current.Add(10 * time.Second)
	g.Call(func() { calls++ })

	require.Equal(t, 1, calls)

	current = current.Add(51 * time.Second)
	g.Call(func() { calls++ })

	assert.Equal(t, 2, calls)
}

func TestGate_FirstCallAlwaysRuns(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Hour)

	ran := false
	g.Call(func() { ran = true })
	assert.True(t, ran)
}

func TestGate_ConcurrentCallersExecuteOnce(t *testing.T) {
	t.Parallel()

	g := NewGate(time.Hour)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Call(func() { calls.Add(1) })
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
