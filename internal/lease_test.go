package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLeases(t *testing.T) {
	t.Run("binds observations read inside a recording", func(t *testing.T) {
		clock := &fakeClock{}
		rt := NewRuntime(WithClock(clock))
		runs := 0

		count := rt.NewValue(1, "count")
		obs := rt.NewObservation(func() any {
			runs++
			return count.Get()
		})

		record := rt.Recorder.Start("outer")
		assert.Equal(t, 1, obs.Get())
		assert.Equal(t, 1, obs.Get())
		rt.Recorder.Stop()

		assert.True(t, obs.IsBound())
		assert.Equal(t, 1, runs)
		assert.Equal(t, []any{obs}, record.ValueDependencies.Values())
		assert.Equal(t, 1, obs.HandlerCount())
		assert.Len(t, clock.timers, 1)

		clock.Fire()

		assert.False(t, obs.IsBound())
		assert.Equal(t, 0, obs.HandlerCount())
		assert.Equal(t, 0, count.HandlerCount())
	})

	t.Run("shares one expiry per lease batch", func(t *testing.T) {
		clock := &fakeClock{}
		rt := NewRuntime(WithClock(clock))

		a := rt.NewObservation(func() any { return 1 })
		b := rt.NewObservation(func() any { return 2 })

		rt.Recorder.Start("outer")
		a.Get()
		b.Get()
		rt.Recorder.Stop()

		assert.Len(t, clock.timers, 1)
		assert.Equal(t, 2, rt.leases.count())

		clock.Fire()
		assert.Equal(t, 0, rt.leases.count())

		rt.Recorder.Start("outer")
		a.Get()
		rt.Recorder.Stop()
		assert.Len(t, clock.timers, 1)
	})

	t.Run("keeps observations bound by other handlers", func(t *testing.T) {
		clock := &fakeClock{}
		rt := NewRuntime(WithClock(clock))

		obs := rt.NewObservation(func() any { return 1 })

		rt.Recorder.Start("outer")
		obs.Get()
		rt.Recorder.Stop()
		listen(obs, &[]any{})

		clock.Fire()

		assert.True(t, obs.IsBound())
		assert.Equal(t, 1, obs.HandlerCount())
	})

	t.Run("reads outside of a recording take no lease", func(t *testing.T) {
		clock := &fakeClock{}
		rt := NewRuntime(WithClock(clock))

		obs := rt.NewObservation(func() any { return 1 })
		obs.Get()

		record := rt.Recorder.Start("outer")
		rt.Ignore(func() { obs.Get() })
		rt.Recorder.Stop()

		assert.True(t, record.IsEmpty())

		assert.False(t, obs.IsBound())
		assert.Empty(t, clock.timers)
	})

	t.Run("drops expiries of released batches", func(t *testing.T) {
		clock := &fakeClock{}
		rt := NewRuntime(WithClock(clock))

		a := rt.NewObservation(func() any { return 1 })
		b := rt.NewObservation(func() any { return 2 })

		rt.Recorder.Start("outer")
		a.Get()
		rt.Recorder.Stop()
		stale := clock.timers[0]

		rt.Close()
		assert.False(t, a.IsBound())

		rt.Recorder.Start("outer")
		b.Get()
		rt.Recorder.Stop()

		// the released timer fired before it could be stopped
		stale.f()

		assert.True(t, b.IsBound())
	})

	t.Run("parks expiries fired off the owner goroutine", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		rt := NewRuntime(WithLeaseDuration(time.Millisecond))
		obs := rt.NewObservation(func() any { return 1 })

		rt.Recorder.Start("outer")
		obs.Get()
		rt.Recorder.Stop()

		require.Eventually(t, func() bool { return rt.Pending() == 1 }, time.Second, time.Millisecond)
		assert.True(t, obs.IsBound())

		assert.Equal(t, 1, rt.RunPending())
		assert.False(t, obs.IsBound())
		assert.Equal(t, 0, rt.RunPending())
	})

	t.Run("drains parked expiries when a change is dispatched", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		rt := NewRuntime(WithLeaseDuration(time.Millisecond))
		obs := rt.NewObservation(func() any { return 1 })
		v := rt.NewValue(0, "v")

		rt.Recorder.Start("outer")
		obs.Get()
		rt.Recorder.Stop()

		require.Eventually(t, func() bool { return rt.Pending() == 1 }, time.Second, time.Millisecond)

		v.Set(1)

		assert.Equal(t, 0, rt.Pending())
		assert.False(t, obs.IsBound())
	})

	t.Run("drains parked expiries at idle entry points", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		rt := NewRuntime(WithLeaseDuration(time.Millisecond))
		obs := rt.NewObservation(func() any { return 1 })

		rt.Recorder.Start("outer")
		obs.Get()
		rt.Recorder.Stop()

		require.Eventually(t, func() bool { return rt.Pending() == 1 }, time.Second, time.Millisecond)

		rt.Batch(func() {
			assert.False(t, obs.IsBound())
		})
		assert.Equal(t, 0, rt.Pending())
	})
}
