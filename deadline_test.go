package fortress

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadline(t *testing.T) {
	t.Run("fires", func(t *testing.T) {
		var mu sync.Mutex
		d := NewDeadline(&mu)
		var fired atomic.Int32

		mu.Lock()
		d.Arm(10*time.Millisecond, func() { fired.Add(1) })
		require.True(t, d.Armed())
		mu.Unlock()

		require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
		mu.Lock()
		require.False(t, d.Armed())
		mu.Unlock()
	})

	t.Run("rearm replaces pending", func(t *testing.T) {
		var mu sync.Mutex
		d := NewDeadline(&mu)
		var first, second atomic.Int32

		mu.Lock()
		d.Arm(20*time.Millisecond, func() { first.Add(1) })
		d.Arm(40*time.Millisecond, func() { second.Add(1) })
		mu.Unlock()

		require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		require.Zero(t, first.Load())
		require.EqualValues(t, 1, second.Load())
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		var mu sync.Mutex
		d := NewDeadline(&mu)
		var fired atomic.Int32

		mu.Lock()
		d.Cancel()
		d.Arm(10*time.Millisecond, func() { fired.Add(1) })
		d.Cancel()
		d.Cancel()
		require.False(t, d.Armed())
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)
		require.Zero(t, fired.Load())
	})

	t.Run("expiry runs with the lock held", func(t *testing.T) {
		var mu sync.Mutex
		d := NewDeadline(&mu)
		locked := make(chan bool, 1)

		mu.Lock()
		d.Arm(time.Millisecond, func() { locked <- !mu.TryLock() })
		mu.Unlock()

		select {
		case v := <-locked:
			require.True(t, v)
		case <-time.After(time.Second):
			t.Fatal("deadline did not fire")
		}
	})
}
