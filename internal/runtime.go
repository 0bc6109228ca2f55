package internal

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow/internal/queues"
	"github.com/AnatoleLucet/reflow/internal/recorder"
	"github.com/AnatoleLucet/reflow/internal/telemetry"
)

const DefaultLeaseDuration = 10 * time.Millisecond

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules lease expiries.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type options struct {
	logger        *zap.Logger
	metrics       *telemetry.Metrics
	tracer        trace.Tracer
	clock         Clock
	leaseDuration time.Duration
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithLeaseDuration(d time.Duration) Option {
	return func(o *options) { o.leaseDuration = d }
}

var defaults = struct {
	mu   sync.Mutex
	opts []Option
}{}

// SetDefaultOptions sets the options of runtimes created by GetRuntime from now on.
func SetDefaultOptions(opts ...Option) {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.opts = opts
}

func defaultOptions() []Option {
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	return defaults.opts
}

// Runtime owns the recorder and scheduler every observable created from it uses.
// A Runtime is not safe for concurrent use, it belongs to the goroutine that created it.
// The only cross-goroutine entry is lease expiry, which is parked until the owner drains it.
type Runtime struct {
	Recorder      *recorder.Recorder
	Queues        *queues.Scheduler
	Introspection *Introspection

	logger  *zap.Logger
	metrics *telemetry.Metrics

	leases *leases

	// goroutine owning this runtime
	gid int64

	mailbox struct {
		mu      sync.Mutex
		pending []func()
	}
}

func NewRuntime(opts ...Option) *Runtime {
	o := options{
		logger:        zap.NewNop(),
		clock:         realClock{},
		leaseDuration: DefaultLeaseDuration,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	r := &Runtime{
		Recorder: recorder.New(),
		Queues: queues.NewScheduler(
			queues.WithLogger(o.logger),
			queues.WithMetrics(o.metrics),
			queues.WithTracer(o.tracer),
		),
		logger:  o.logger,
		metrics: o.metrics,
		gid:     getGID(),
	}
	r.leases = newLeases(r, o.clock, o.leaseDuration)
	r.Introspection = newIntrospection()

	return r
}

func (r *Runtime) Logger() *zap.Logger { return r.logger }

// idle reports whether nothing is recording, batching or flushing.
func (r *Runtime) idle() bool {
	return r.Recorder.Depth() == 0 && !r.Queues.IsCollecting() && !r.Queues.IsFlushing()
}

// drainIfIdle runs parked callbacks when nothing is recording, batching or flushing.
func (r *Runtime) drainIfIdle() {
	if r.idle() {
		r.RunPending()
	}
}

// Batch runs fn inside a batch. Reactions flush once the outermost batch returns.
func (r *Runtime) Batch(fn func()) {
	r.drainIfIdle()

	r.Queues.BatchStart()
	defer r.Queues.BatchStop()

	fn()
}

// Flush runs every pending reaction.
func (r *Runtime) Flush() {
	r.drainIfIdle()
	r.Queues.Flush()
}

// Ignore runs fn without recording its reads.
func (r *Runtime) Ignore(fn func()) {
	r.Recorder.Ignore(fn)()
}

// Peek reads the value of v without recording it.
func (r *Runtime) Peek(v any) any {
	return r.Recorder.PeekValue(v)
}

// post runs fn on the owner goroutine: now when called from it, otherwise
// at the owner's next idle Batch, Flush or change dispatch, or RunPending.
func (r *Runtime) post(fn func()) {
	if getGID() == r.gid {
		fn()
		return
	}

	r.mailbox.mu.Lock()
	r.mailbox.pending = append(r.mailbox.pending, fn)
	r.mailbox.mu.Unlock()
}

// Pending returns the number of callbacks waiting for RunPending.
func (r *Runtime) Pending() int {
	r.mailbox.mu.Lock()
	defer r.mailbox.mu.Unlock()
	return len(r.mailbox.pending)
}

// RunPending runs the callbacks posted from other goroutines and returns how many ran.
func (r *Runtime) RunPending() int {
	r.mailbox.mu.Lock()
	pending := r.mailbox.pending
	r.mailbox.pending = nil
	r.mailbox.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Close stops pending lease timers and releases leased observations.
func (r *Runtime) Close() {
	r.leases.release()
	r.RunPending()
}
