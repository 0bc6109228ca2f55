package internal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/deps"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

type ObservationOption func(*Observation)

// WithPriority sets the derive priority. Lower priorities update first.
func WithPriority(priority int) ObservationOption {
	return func(o *Observation) { o.priority = priority }
}

// WithObservable controls whether reads of the observation are recorded.
func WithObservable(observable bool) ObservationOption {
	return func(o *Observation) { o.isObservable = observable }
}

func WithName(name string) ObservationOption {
	return func(o *Observation) { o.name = name }
}

// Observation caches the result of fn while it has handlers and recomputes it
// in the derive queue when something fn read changes. Without handlers every
// read calls fn.
type Observation struct {
	*ValueEvents

	rt     *Runtime
	logger *zap.Logger

	fn   func() any
	name string

	priority     int
	isObservable bool

	bound    bool
	updating bool
	value    any

	newDependencies *deps.Record
	oldDependencies *deps.Record

	onDependencyChange *queues.Handler
	update             *queues.Handler
}

func (r *Runtime) NewObservation(fn func() any, opts ...ObservationOption) *Observation {
	o := &Observation{
		rt:              r,
		fn:              fn,
		isObservable:    true,
		newDependencies: deps.NewRecord(""),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("Observation(%p)", o)
	}
	o.logger = r.logger.Named("observation").With(zap.String("observation", o.name))

	o.ValueEvents = r.NewValueEvents(o, Hooks{
		OnBound:   o.onBound,
		OnUnbound: o.onUnbound,
	})
	o.onDependencyChange = queues.NewHandler(o.name+".onDependencyChange", func(args ...any) {
		o.dependencyChange()
	})
	o.update = queues.NewHandler(o.name+".update", func(args ...any) {
		o.doUpdate()
	})

	return o
}

func (o *Observation) onBound() {
	o.bound = true
	prev := o.newDependencies

	var next *deps.Record
	o.rt.Recorder.Start(o.name)
	func() {
		defer func() { next = o.rt.Recorder.Stop() }()
		o.value = o.fn()
	}()
	o.rt.metrics.Recomputed()

	// a panicking fn keeps the previous record, it still matches the subscriptions
	o.rt.observe(o.onDependencyChange, prev, next)
	o.oldDependencies = prev
	o.newDependencies = next
	o.logger.Debug("bound", zap.Int("dependencies", len(next.Reads())))
}

// dependencyChange runs in notify and schedules the update at our priority.
func (o *Observation) dependencyChange() {
	// the running recompute reads the new value already
	if !o.bound || o.updating {
		return
	}

	reason := []any{"dependency changed"}
	if task := o.rt.Queues.LastTask(); task != nil && task.Context != nil {
		reason = []any{capability.GetName(task.Context), "changed"}
	}

	o.rt.Queues.Derive.Enqueue(o.update, o, nil, queues.Meta{
		Priority:  o.priority,
		Log:       []any{o.update.Name()},
		ReasonLog: reason,
	})
}

func (o *Observation) doUpdate() {
	if !o.bound {
		return
	}

	old := o.value
	func() {
		o.updating = true
		defer func() { o.updating = false }()
		o.onBound()
	}()

	if isEqual(old, o.value) {
		o.rt.metrics.Suppressed()
		return
	}
	o.Dispatch(o.value, old)
}

func (o *Observation) onUnbound() {
	o.bound = false
	o.rt.observe(o.onDependencyChange, o.newDependencies, nil)
	o.newDependencies = deps.NewRecord("")
	o.oldDependencies = nil
	o.value = nil
	o.logger.Debug("unbound")
}

// Get returns the current value. Bound observations return their cache,
// first running their own pending update and those of what they read.
// Read inside another recording, an unbound observation takes a lease so it
// stays bound for a while.
func (o *Observation) Get() any {
	if o.isObservable && o.rt.Recorder.IsRecording() {
		o.rt.Recorder.Add(o)
		if !o.bound {
			o.rt.leases.take(o)
		}
	}

	if o.bound {
		if o.rt.Queues.Derive.TasksRemainingCount() > 0 {
			o.rt.updateChildrenAndSelf(o)
		}
		return o.value
	}
	return o.fn()
}

func (o *Observation) GetValue() any { return o.Get() }

func (o *Observation) Name() string { return o.name }

func (o *Observation) IsBound() bool { return o.bound }

func (o *Observation) GetPriority() int { return o.priority }

func (o *Observation) SetPriority(priority int) { o.priority = priority }

// HasDependencies reports whether the bound observation read anything.
func (o *Observation) HasDependencies() bool {
	return o.bound && !o.newDependencies.IsEmpty()
}

// GetValueDependencies returns what the bound observation read, or nil.
func (o *Observation) GetValueDependencies() *deps.Record {
	if !o.bound || o.newDependencies.IsEmpty() {
		return nil
	}
	return o.newDependencies
}

func (o *Observation) updateHandler() *queues.Handler { return o.update }

type updater interface {
	updateHandler() *queues.Handler
}

// updateChildrenAndSelf forces the pending update of obs, or else of what it
// read, to run now. It reports whether one ran.
func (r *Runtime) updateChildrenAndSelf(obs any) bool {
	if u, ok := obs.(updater); ok && r.Queues.Derive.IsEnqueued(u.updateHandler()) {
		r.Queues.Derive.FlushQueuedTask(u.updateHandler())
		return true
	}

	record := capability.ValueDependenciesOf(obs)
	if record == nil {
		return false
	}

	changed := false
	for _, dep := range record.ValueDependencies.Values() {
		if r.updateChildrenAndSelf(dep) {
			changed = true
		}
	}
	return changed
}

// observe moves h from the reads of prev to the reads of next, both may be nil.
// Only reads that differ are bound or unbound.
func (r *Runtime) observe(h *queues.Handler, prev, next *deps.Record) {
	added, removed := deps.Diff(prev, next)

	for _, read := range added {
		var err error
		if read.Keyed {
			err = capability.OnKeyValue(read.Object, read.Key, h, queues.NotifyQueue)
		} else {
			err = capability.OnValue(read.Object, h, queues.NotifyQueue)
		}
		if err != nil {
			panic(err)
		}
	}

	for _, read := range removed {
		var err error
		if read.Keyed {
			err = capability.OffKeyValue(read.Object, read.Key, h, queues.NotifyQueue)
		} else {
			err = capability.OffValue(read.Object, h, queues.NotifyQueue)
		}
		if err != nil {
			panic(err)
		}
	}
}
