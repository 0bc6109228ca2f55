package reflow

import (
	"github.com/AnatoleLucet/reflow/internal"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

const (
	NotifyQueue = queues.NotifyQueue
	DeriveQueue = queues.DeriveQueue
	DomUIQueue  = queues.DomUIQueue
	MutateQueue = queues.MutateQueue
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type options struct {
	name       string
	priority   int
	observable bool
}

type Option func(*options)

// WithName names a value or observation in task logs and the causal stack.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPriority sets the derive priority of an observation. Lower priorities update first.
func WithPriority(priority int) Option {
	return func(o *options) { o.priority = priority }
}

// Unobservable makes reads of an observation invisible to whatever is recording.
func Unobservable() Option {
	return func(o *options) { o.observable = false }
}

func collect(opts []Option) options {
	o := options{observable: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader is anything holding a value of type T.
type Reader[T any] interface {
	Get() T
}

type Value[T any] struct {
	value *internal.Value
}

// NewValue creates an observable value.
func NewValue[T any](initial T, opts ...Option) *Value[T] {
	o := collect(opts)
	return &Value[T]{
		internal.GetRuntime().NewValue(initial, o.name),
	}
}

// Get returns the current value, recording the read if something is recording.
func (v *Value[T]) Get() T {
	return as[T](v.value.Get())
}

// Set stores a new value and schedules whatever depends on it.
func (v *Value[T]) Set(value T) {
	v.value.Set(value)
}

// OnChange calls fn with the new and old value after every Set, in queue
// ("mutate" when empty). The returned function unsubscribes.
func (v *Value[T]) OnChange(queue string, fn func(value, old T)) func() {
	return subscribe(v.value.ValueEvents, queue, fn)
}

type Observation[T any] struct {
	obs *internal.Observation
}

// NewObservation creates a computed value. While something listens to it,
// fn runs again in the derive queue whenever what it read changes, and
// listeners are notified only when the result differs.
func NewObservation[T any](fn func() T, opts ...Option) *Observation[T] {
	o := collect(opts)

	obsOpts := []internal.ObservationOption{
		internal.WithPriority(o.priority),
		internal.WithObservable(o.observable),
	}
	if o.name != "" {
		obsOpts = append(obsOpts, internal.WithName(o.name))
	}

	return &Observation[T]{
		internal.GetRuntime().NewObservation(func() any { return fn() }, obsOpts...),
	}
}

// Get returns the current result, recording the read if something is recording.
func (o *Observation[T]) Get() T {
	return as[T](o.obs.Get())
}

// OnChange binds the observation and calls fn with the new and old result
// each time it changes. The returned function unsubscribes, unbinding the
// observation when it was the last listener.
func (o *Observation[T]) OnChange(queue string, fn func(value, old T)) func() {
	return subscribe(o.obs.ValueEvents, queue, fn)
}

// IsBound reports whether the observation caches its result.
func (o *Observation[T]) IsBound() bool { return o.obs.IsBound() }

func (o *Observation[T]) Priority() int { return o.obs.GetPriority() }

func (o *Observation[T]) SetPriority(priority int) { o.obs.SetPriority(priority) }

func subscribe[T any](events *internal.ValueEvents, queue string, fn func(value, old T)) func() {
	h := queues.NewHandler("OnChange", func(args ...any) {
		fn(as[T](args[0]), as[T](args[1]))
	})
	events.OnValue(h, queue)

	return func() { events.OffValue(h, queue) }
}

type Effect struct {
	effect *internal.Effect
}

// NewEffect runs fn now, then again in the mutate queue after derivations
// settled whenever something it read changes. fn may return a cleanup
// called before the next run and on Dispose.
func NewEffect(fn func() func()) *Effect {
	return &Effect{internal.GetRuntime().NewEffect(internal.EffectUser, fn)}
}

// NewRenderEffect is like NewEffect but runs in the domUI queue, before user effects.
func NewRenderEffect(fn func() func()) *Effect {
	return &Effect{internal.GetRuntime().NewEffect(internal.EffectRender, fn)}
}

// Dispose stops the effect and runs its cleanup.
func (e *Effect) Dispose() { e.effect.Dispose() }

// Batch groups the writes made by fn: dependents run once, after fn returns.
func Batch(fn func()) {
	internal.GetRuntime().Batch(fn)
}

// Flush runs every pending reaction now.
func Flush() {
	internal.GetRuntime().Flush()
}

// Ignore runs fn without recording its reads.
func Ignore[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Ignore(func() { result = fn() })
	return result
}

// Peek reads r without recording the read.
func Peek[T any](r Reader[T]) T {
	return Ignore(r.Get)
}

// IsRecording reports whether reads are being recorded.
func IsRecording() bool {
	return internal.GetRuntime().Recorder.IsRecording()
}

// Log turns on debug logging of the tasks run in the named queues, all when none is named.
func Log(queues ...string) {
	internal.GetRuntime().Queues.Log(queues...)
}

// LogStack logs the chain of tasks that led to the running one.
func LogStack() {
	internal.GetRuntime().Queues.LogStack()
}

// RunPending runs the lease expiries that fired on other goroutines. They
// also run at the next Batch, Flush or Set made while nothing is recording,
// so only a goroutine that stops writing needs to call it.
func RunPending() int {
	return internal.GetRuntime().RunPending()
}

type RuntimeOption = internal.Option

var (
	WithLogger        = internal.WithLogger
	WithMetrics       = internal.WithMetrics
	WithTracer        = internal.WithTracer
	WithClock         = internal.WithClock
	WithLeaseDuration = internal.WithLeaseDuration
)

// Configure sets the options of the runtimes created from now on and
// replaces the runtime of the calling goroutine with a configured one.
// Values created before keep their old runtime.
func Configure(opts ...RuntimeOption) {
	internal.SetDefaultOptions(opts...)
	internal.DropRuntime()
}

// Close releases the runtime of the calling goroutine.
func Close() {
	internal.DropRuntime()
}
