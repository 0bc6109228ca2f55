package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/reflow/internal/deps"
)

type cell struct {
	r     *Recorder
	value int
}

func (c *cell) GetValue() any {
	c.r.Add(c)
	return c.value
}

func TestRecorder(t *testing.T) {
	t.Run("records value and key reads", func(t *testing.T) {
		r := New()

		r.Start("test")
		assert.True(t, r.IsRecording())
		r.Add("a")
		r.Add("m", "x")
		r.Add("m", "x")
		r.Add("m", "y")
		record := r.Stop()

		require.NotNil(t, record)
		assert.Equal(t, "test", record.Name)
		assert.Equal(t, []any{"a"}, record.ValueDependencies.Values())
		assert.Equal(t, []any{"x", "y"}, record.KeyDependencies.Get("m").Values())
		assert.False(t, r.IsRecording())
	})

	t.Run("ignores reads outside of a context", func(t *testing.T) {
		r := New()

		r.Add("a")
		r.AddMany([]deps.Read{{Object: "b"}})

		assert.Nil(t, r.Stop())
		assert.Equal(t, 0, r.Depth())
	})

	t.Run("attributes reads to the top context only", func(t *testing.T) {
		r := New()

		outer := r.Start("outer")
		r.Add("a")
		inner := r.Start("inner")
		r.Add("b")
		assert.Same(t, inner, r.Top())
		assert.Equal(t, 2, r.Depth())
		r.Stop()
		r.Add("c")
		r.Stop()

		assert.Equal(t, []any{"a", "c"}, outer.ValueDependencies.Values())
		assert.Equal(t, []any{"b"}, inner.ValueDependencies.Values())
	})

	t.Run("adds many", func(t *testing.T) {
		r := New()

		r.Start("test")
		r.AddMany([]deps.Read{{Object: "a"}, {Object: "m", Key: "x", Keyed: true}})
		record := r.Stop()

		assert.True(t, record.ValueDependencies.Has("a"))
		assert.True(t, record.KeyDependencies.Has("m", "x"))
	})

	t.Run("ignore hides reads from the active context", func(t *testing.T) {
		r := New()

		r.Start("test")
		r.Add("a")
		r.Ignore(func() {
			assert.False(t, r.IsRecording())
			r.Add("b")
			r.Add("m", "x")
		})()
		assert.True(t, r.IsRecording())
		record := r.Stop()

		assert.Equal(t, []any{"a"}, record.ValueDependencies.Values())
		assert.Equal(t, 0, record.KeyDependencies.Len())
		assert.Equal(t, 0, record.Ignore)
	})

	t.Run("ignore is a passthrough without a context", func(t *testing.T) {
		r := New()
		ran := false

		r.Ignore(func() { ran = true })()

		assert.True(t, ran)
	})

	t.Run("ignore restores the depth after a panic", func(t *testing.T) {
		r := New()

		record := r.Start("test")
		assert.Panics(t, r.Ignore(func() { panic("boom") }))
		r.Add("a")
		r.Stop()

		assert.Equal(t, []any{"a"}, record.ValueDependencies.Values())
	})

	t.Run("peeks values", func(t *testing.T) {
		r := New()
		c := &cell{r: r, value: 3}

		r.Start("test")
		assert.Equal(t, 3, r.PeekValue(c))
		assert.Equal(t, 3, c.GetValue())
		record := r.Stop()

		assert.Equal(t, []any{c}, record.ValueDependencies.Values())
		assert.Equal(t, 4, r.PeekValue(4))
	})

	t.Run("traps reads", func(t *testing.T) {
		r := New()

		record := r.Start("test")
		r.Add("a")

		stop := r.Trap()
		r.Add("b")
		r.Add("m", "x")
		r.AddMany([]deps.Read{{Object: "c"}})
		assert.Equal(t, 3, r.TrapsCount())
		trapped := stop()

		assert.Equal(t, 0, r.TrapsCount())
		r.Add("d")
		r.Stop()

		assert.Equal(t, []deps.Read{
			{Object: "b"},
			{Object: "m", Key: "x", Keyed: true},
			{Object: "c"},
		}, trapped)
		assert.Equal(t, []any{"a", "d"}, record.ValueDependencies.Values())
	})

	t.Run("nested traps are isolated", func(t *testing.T) {
		r := New()

		r.Start("test")
		stopOuter := r.Trap()
		r.Add("a")
		stopInner := r.Trap()
		r.Add("b")
		inner := stopInner()
		r.Add("c")
		outer := stopOuter()
		r.Stop()

		assert.Equal(t, []deps.Read{{Object: "b"}}, inner)
		assert.Equal(t, []deps.Read{{Object: "a"}, {Object: "c"}}, outer)
	})

	t.Run("trap without a context is empty", func(t *testing.T) {
		r := New()

		stop := r.Trap()
		r.Add("a")

		assert.Empty(t, stop())
		assert.Equal(t, 0, r.TrapsCount())
	})
}
