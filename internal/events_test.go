package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

func TestValueEvents(t *testing.T) {
	t.Run("dispatches to every queue in phase order", func(t *testing.T) {
		rt := NewRuntime()
		log := []string{}

		v := rt.NewValue(0, "v")
		for _, queue := range []string{queues.MutateQueue, queues.DomUIQueue, queues.DeriveQueue, queues.NotifyQueue} {
			queue := queue
			v.OnValue(queues.NewHandler(queue, func(args ...any) {
				log = append(log, queue)
			}), queue)
		}

		v.Set(1)

		assert.Equal(t, []string{"notify", "derive", "domUI", "mutate"}, log)
	})

	t.Run("dispatches even when the value is unchanged", func(t *testing.T) {
		rt := NewRuntime()
		log := []any{}

		v := rt.NewValue(1, "v")
		listen(v, &log)

		v.Set(1)
		v.Set(1)

		assert.Equal(t, []any{1, 1}, log)
	})

	t.Run("defaults to the mutate queue", func(t *testing.T) {
		rt := NewRuntime()
		ran := 0

		v := rt.NewValue(0, "v")
		h := queues.NewHandler("h", func(args ...any) { ran++ })
		v.OnValue(h, "")
		v.Set(1)
		v.OffValue(h, queues.MutateQueue)
		v.Set(2)

		assert.Equal(t, 1, ran)
		assert.False(t, v.IsBound())
	})

	t.Run("rejects unknown queues", func(t *testing.T) {
		rt := NewRuntime()
		v := rt.NewValue(0, "v")

		assert.Panics(t, func() {
			v.OnValue(queues.NewHandler("h", func(args ...any) {}), "later")
		})
	})

	t.Run("fires hooks", func(t *testing.T) {
		rt := NewRuntime()
		log := []string{}

		e := rt.NewValueEvents("owner", Hooks{
			OnBound:   func() { log = append(log, "bound") },
			OnUnbound: func() { log = append(log, "unbound") },
		})
		h1 := queues.NewHandler("h1", func(args ...any) {})
		h2 := queues.NewHandler("h2", func(args ...any) {})

		e.OnValue(h1, queues.NotifyQueue)
		e.OnValue(h2, queues.MutateQueue)
		e.OffValue(h1, queues.NotifyQueue)
		e.OffAllValue()

		assert.Equal(t, []string{"bound", "unbound"}, log)
		assert.Equal(t, 0, e.HandlerCount())
	})

	t.Run("passes the owner as task context", func(t *testing.T) {
		rt := NewRuntime()
		var stack []*queues.Task

		v := rt.NewValue(0, "v")
		v.OnValue(queues.NewHandler("h", func(args ...any) {
			stack = rt.Queues.Stack()
		}), queues.MutateQueue)
		v.Set(1)

		assert.Len(t, stack, 1)
		assert.Same(t, v, stack[0].Context)
		assert.Equal(t, []any{"v", "changed to", 1, "from", 0}, stack[0].Meta.ReasonLog)
	})

	t.Run("value implements the protocol", func(t *testing.T) {
		rt := NewRuntime()
		v := rt.NewValue(1, "v")

		assert.NoError(t, capability.SetValue(v, 2))
		assert.Equal(t, 2, capability.GetValue(v))
		assert.True(t, capability.IsObservableLike(v))
		assert.True(t, capability.IsValueLike(v))
		assert.Equal(t, "v", capability.GetName(v))
		assert.Equal(t, "Value", capability.GetName(rt.NewValue(0, "")))
	})
}

func TestKeyEvents(t *testing.T) {
	t.Run("dispatches per key", func(t *testing.T) {
		rt := NewRuntime()
		log := []any{}

		m := newTestMap(rt, map[any]any{})
		m.OnKeyValue("a", queues.NewHandler("a", func(args ...any) {
			log = append(log, "a", args[0])
		}), queues.MutateQueue)
		m.OnKeyValue("b", queues.NewHandler("b", func(args ...any) {
			log = append(log, "b", args[0])
		}), queues.NotifyQueue)

		m.SetKeyValue("a", 1)
		m.SetKeyValue("c", 3)
		m.SetKeyValue("b", 2)

		assert.Equal(t, []any{"a", 1, "b", 2}, log)
		assert.Equal(t, 2, m.KeyHandlerCount())
	})

	t.Run("fires hooks", func(t *testing.T) {
		rt := NewRuntime()
		log := []string{}

		e := rt.NewKeyEvents("owner", Hooks{
			OnBound:   func() { log = append(log, "bound") },
			OnUnbound: func() { log = append(log, "unbound") },
		})
		h := queues.NewHandler("h", func(args ...any) {})

		e.OnKeyValue("a", h, "")
		e.OnKeyValue("b", h, "")
		e.OffKeyValue("a", h, "")
		e.OffKeyValue("b", h, "")

		assert.Equal(t, []string{"bound", "unbound"}, log)
	})
}
