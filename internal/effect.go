package internal

import (
	"fmt"

	"github.com/AnatoleLucet/reflow/internal/deps"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

type EffectType int

const (
	// EffectRender effects run in the domUI queue.
	EffectRender EffectType = iota
	// EffectUser effects run in the mutate queue.
	EffectUser
)

func (t EffectType) queue() string {
	if t == EffectRender {
		return queues.DomUIQueue
	}
	return queues.MutateQueue
}

// Effect runs a side effect now, and again in its queue after derivations
// settled whenever something it read changed. The function it runs may return
// a cleanup, called before the next run and on Dispose.
type Effect struct {
	rt  *Runtime
	typ EffectType

	effect  func() func()
	cleanup func()

	dependencies *deps.Record
	queued       bool
	disposed     bool

	onDependencyChange *queues.Handler
	run                *queues.Handler
}

func (r *Runtime) NewEffect(typ EffectType, effect func() func()) *Effect {
	e := &Effect{
		rt:     r,
		typ:    typ,
		effect: effect,
	}

	name := fmt.Sprintf("Effect(%p)", e)
	e.onDependencyChange = queues.NewHandler(name+".onDependencyChange", func(args ...any) {
		e.schedule()
	})
	e.run = queues.NewHandler(name+".run", func(args ...any) {
		e.execute()
	})

	e.execute()
	return e
}

func (e *Effect) schedule() {
	if e.queued || e.disposed {
		return
	}
	e.queued = true
	e.rt.Queues.Enqueue(e.typ.queue(), e.run, e, nil, queues.Meta{Log: []any{e.run.Name()}})
}

func (e *Effect) execute() {
	e.queued = false
	if e.disposed {
		return
	}

	if e.cleanup != nil {
		e.rt.Ignore(e.cleanup)
		e.cleanup = nil
	}

	var next *deps.Record
	e.rt.Recorder.Start(e.run.Name())
	func() {
		defer func() { next = e.rt.Recorder.Stop() }()
		e.cleanup = e.effect()
	}()

	e.rt.observe(e.onDependencyChange, e.dependencies, next)
	e.dependencies = next
}

// Dispose unbinds the effect and runs its last cleanup.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true

	e.rt.observe(e.onDependencyChange, e.dependencies, nil)
	e.dependencies = nil

	if e.cleanup != nil {
		e.rt.Ignore(e.cleanup)
		e.cleanup = nil
	}
}
