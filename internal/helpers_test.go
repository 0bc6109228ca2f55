package internal

import (
	"time"

	"github.com/AnatoleLucet/reflow/internal/queues"
)

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock fires timers when told to, on the calling goroutine.
type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Fire() {
	timers := c.timers
	c.timers = nil
	for _, t := range timers {
		if !t.stopped {
			t.fired = true
			t.f()
		}
	}
}

// testMap is a minimal key observable.
type testMap struct {
	*KeyEvents

	rt   *Runtime
	data map[any]any
}

func newTestMap(rt *Runtime, data map[any]any) *testMap {
	m := &testMap{rt: rt, data: data}
	m.KeyEvents = rt.NewKeyEvents(m, Hooks{})
	return m
}

func (m *testMap) GetKeyValue(key any) any {
	m.rt.Recorder.Add(m, key)
	return m.data[key]
}

func (m *testMap) SetKeyValue(key, v any) {
	old := m.data[key]
	m.data[key] = v
	m.DispatchKey(key, v, old)
}

func (m *testMap) Name() string { return "testMap" }

// spyValue counts bindings of a Value.
type spyValue struct {
	*Value

	ons, offs int
}

func newSpyValue(rt *Runtime, initial any, name string) *spyValue {
	s := &spyValue{Value: rt.NewValue(initial, name)}
	s.owner = s
	return s
}

func (s *spyValue) Get() any {
	s.rt.Recorder.Add(s)
	return s.value
}

func (s *spyValue) GetValue() any { return s.Get() }

func (s *spyValue) OnValue(h *queues.Handler, queue string) {
	s.ons++
	s.Value.OnValue(h, queue)
}

func (s *spyValue) OffValue(h *queues.Handler, queue string) {
	s.offs++
	s.Value.OffValue(h, queue)
}

// listen registers a mutate handler recording what it receives.
func listen(obs interface {
	OnValue(*queues.Handler, string)
}, log *[]any) *queues.Handler {
	h := queues.NewHandler("listener", func(args ...any) {
		*log = append(*log, args[0])
	})
	obs.OnValue(h, queues.MutateQueue)
	return h
}
