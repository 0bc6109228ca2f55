package queues

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow/internal/telemetry"
)

const (
	NotifyQueue = "notify"
	DeriveQueue = "derive"
	DomUIQueue  = "domUI"
	MutateQueue = "mutate"
)

// QueueNames lists the pipeline phases in flush order.
var QueueNames = []string{NotifyQueue, DeriveQueue, DomUIQueue, MutateQueue}

// BatchData identifies the currently open batch.
type BatchData struct {
	Number uint64
	ID     string
}

// Scheduler chains the four phase queues: draining notify flushes derive,
// derive flushes domUI, domUI flushes mutate.
type Scheduler struct {
	Notify *Queue
	Derive *PriorityQueue
	DomUI  *CompletionQueue
	Mutate *Queue

	// each nested batch increases the counter by 1
	// downstream queues are flushed when it gets back to 0
	batchStartCounter int
	addedTask         bool
	isFlushing        bool

	batchNum  uint64
	batchData BatchData

	// the task currently running, used as the parent of enqueued tasks
	lastTask *Task

	logged map[string]bool
	ran    map[string]int

	logger  *zap.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

type Option func(*Scheduler)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger: zap.NewNop(),
		tracer: telemetry.Tracer(),
		logged: make(map[string]bool),
		ran:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("queues")

	s.Notify = NewQueue(NotifyQueue, Callbacks{
		OnFirstTask: func() {
			if s.batchStartCounter == 0 {
				s.Notify.Flush()
			} else {
				s.addedTask = true
			}
		},
		OnComplete: func() { s.Derive.Flush() },
	})
	s.Derive = NewPriorityQueue(DeriveQueue, Callbacks{
		OnFirstTask: func() { s.addedTask = true },
		OnComplete:  func() { s.DomUI.Flush() },
	})
	s.DomUI = NewCompletionQueue(DomUIQueue, Callbacks{
		OnFirstTask: func() { s.addedTask = true },
		OnComplete:  func() { s.Mutate.Flush() },
	})
	s.Mutate = NewQueue(MutateQueue, Callbacks{
		OnFirstTask: func() { s.addedTask = true },
		OnComplete: func() {
			s.lastTask = nil
			s.isFlushing = false
			// tasks enqueued while flushing ran in this flush
			s.addedTask = false
		},
	})

	s.Notify.sched = s
	s.Derive.sched = s
	s.DomUI.sched = s
	s.Mutate.sched = s
	s.Derive.logger = s.logger

	return s
}

func (s *Scheduler) BatchStart() {
	s.batchStartCounter++
	if s.batchStartCounter == 1 {
		s.batchNum++
		s.batchData = BatchData{Number: s.batchNum, ID: uuid.NewString()}
		s.metrics.BatchStarted()
	}
}

// BatchStop closes a batch. Closing the outermost batch flushes the pipeline
// if any task was enqueued while it was open.
func (s *Scheduler) BatchStop() {
	s.batchStartCounter--
	if s.batchStartCounter == 0 && s.addedTask {
		s.addedTask = false
		s.flushPipeline()
	}
}

func (s *Scheduler) IsCollecting() bool { return s.batchStartCounter > 0 }

func (s *Scheduler) IsFlushing() bool { return s.isFlushing }

func (s *Scheduler) BatchNumber() uint64 { return s.batchNum }

func (s *Scheduler) BatchData() BatchData { return s.batchData }

// Flush runs the whole pipeline starting at notify.
func (s *Scheduler) Flush() {
	s.flushPipeline()
}

func (s *Scheduler) flushPipeline() {
	if s.isFlushing {
		s.Notify.Flush()
		return
	}

	s.isFlushing = true
	clear(s.ran)

	_, span := s.tracer.Start(context.Background(), "queues.flush",
		trace.WithAttributes(
			attribute.Int64("batch.number", int64(s.batchData.Number)),
			attribute.String("batch.id", s.batchData.ID),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.isFlushing = false
			s.lastTask = nil

			span.RecordError(fmt.Errorf("task panicked: %v", r))
			span.SetStatus(codes.Error, "task panicked")
			span.End()
			panic(r)
		}
	}()

	s.Notify.Flush()

	for _, name := range QueueNames {
		span.SetAttributes(attribute.Int("tasks."+name, s.ran[name]))
	}
	span.End()
	s.metrics.FlushObserved(time.Since(start))
}

// EnqueueByQueue enqueues every handler in the queue it is listed under,
// inside a single batch.
func (s *Scheduler) EnqueueByQueue(
	tasks map[string][]*Handler,
	context any,
	args []any,
	makeMeta func(fn *Handler, context any, args []any) Meta,
	reasonLog []any,
) {
	if len(tasks) == 0 {
		return
	}
	for name := range tasks {
		if !IsQueueName(name) {
			panic(fmt.Errorf("%w: %q", ErrUnknownQueue, name))
		}
	}

	s.BatchStart()
	defer s.BatchStop()

	for _, name := range QueueNames {
		for _, fn := range tasks[name] {
			var meta Meta
			if makeMeta != nil {
				meta = makeMeta(fn, context, args)
			}
			meta.ReasonLog = reasonLog

			s.Enqueue(name, fn, context, args, meta)
		}
	}
}

func IsQueueName(name string) bool {
	switch name {
	case NotifyQueue, DeriveQueue, DomUIQueue, MutateQueue:
		return true
	}
	return false
}

// Enqueue adds a task to the named queue.
func (s *Scheduler) Enqueue(queue string, fn *Handler, context any, args []any, meta Meta) {
	switch queue {
	case NotifyQueue:
		s.Notify.Enqueue(fn, context, args, meta)
	case DeriveQueue:
		s.Derive.Enqueue(fn, context, args, meta)
	case DomUIQueue:
		s.DomUI.Enqueue(fn, context, args, meta)
	case MutateQueue:
		s.Mutate.Enqueue(fn, context, args, meta)
	default:
		panic(fmt.Errorf("%w: %q", ErrUnknownQueue, queue))
	}
}

// Log turns on debug logging of every task run in the named queues,
// or in every queue when none is named.
func (s *Scheduler) Log(queues ...string) {
	if len(queues) == 0 {
		queues = QueueNames
	}
	for _, name := range queues {
		s.logged[name] = true
	}
}

// LastTask returns the task currently running, if any.
func (s *Scheduler) LastTask() *Task { return s.lastTask }

// Stack returns the causal chain of the given task (or the running one),
// outermost cause first.
func (s *Scheduler) Stack(task ...*Task) []*Task {
	current := s.lastTask
	if len(task) > 0 {
		current = task[0]
	}

	stack := []*Task{}
	for current != nil {
		stack = append([]*Task{current}, stack...)
		current = current.Meta.ParentTask
	}
	return stack
}

// LogStack logs the causal chain of the given task (or the running one).
func (s *Scheduler) LogStack(task ...*Task) {
	for i, t := range s.Stack(task...) {
		if i == 0 && len(t.Meta.ReasonLog) > 0 {
			s.logger.Info("reason", zap.String("log", fmt.Sprint(t.Meta.ReasonLog...)))
		}
		s.logger.Info(t.queue+" ran task", zap.String("task", t.String()))
	}
}

// RunAsTask wraps fn so that, while it runs, it is the parent of every task it enqueues.
func (s *Scheduler) RunAsTask(fn *Handler, reasonLog ...any) func(args ...any) {
	return func(args ...any) {
		task := &Task{
			Fn:    fn,
			Args:  args,
			queue: "runAs",
			Meta: Meta{
				ReasonLog:  reasonLog,
				ParentTask: s.lastTask,
			},
		}

		s.lastTask = task
		defer func() { s.lastTask = task.Meta.ParentTask }()

		fn.Call(args...)
	}
}

func (s *Scheduler) taskEnqueued(queue string, t *Task) {
	if t.Meta.ParentTask == nil {
		t.Meta.ParentTask = s.lastTask
	}
	s.metrics.TaskEnqueued(queue)
}

func (s *Scheduler) taskCoalesced(queue string, fn *Handler) {
	s.metrics.TaskCoalesced()
}

func (s *Scheduler) runTask(queue string, t *Task) {
	prev := s.lastTask
	s.lastTask = t
	defer func() { s.lastTask = prev }()

	s.ran[queue]++
	s.metrics.TaskRun(queue)

	if s.logged[queue] {
		s.logger.Debug("running task",
			zap.String("queue", queue),
			zap.String("task", t.String()),
			zap.Int("priority", t.Meta.Priority),
			zap.String("reason", fmt.Sprint(t.Meta.ReasonLog...)),
			zap.Uint64("batch", s.batchData.Number),
		)
	}

	t.Fn.Call(t.Args...)
}
