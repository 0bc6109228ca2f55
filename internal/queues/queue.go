package queues

// Callbacks are the lifecycle hooks of a queue.
type Callbacks struct {
	// OnFirstTask runs when a task is enqueued in an empty queue.
	OnFirstTask func()

	// OnComplete runs after a flush drained the queue.
	OnComplete func()
}

// tasker lets the Scheduler observe enqueues and wrap task execution.
type tasker interface {
	taskEnqueued(queue string, t *Task)
	taskCoalesced(queue string, fn *Handler)
	runTask(queue string, t *Task)
}

type base struct {
	name      string
	callbacks Callbacks
	sched     tasker
}

func (b *base) Name() string { return b.name }

func (b *base) newTask(fn *Handler, context any, args []any, meta Meta) *Task {
	t := &Task{Fn: fn, Context: context, Args: args, Meta: meta, queue: b.name}
	if b.sched != nil {
		b.sched.taskEnqueued(b.name, t)
	}
	return t
}

func (b *base) run(t *Task) {
	if b.sched != nil {
		b.sched.runTask(b.name, t)
		return
	}
	t.Fn.Call(t.Args...)
}

func (b *base) firstTask() {
	if b.callbacks.OnFirstTask != nil {
		b.callbacks.OnFirstTask()
	}
}

func (b *base) complete() {
	if b.callbacks.OnComplete != nil {
		b.callbacks.OnComplete()
	}
}

// Queue runs tasks in insertion order.
// Tasks enqueued while the queue is flushing run in the same flush.
type Queue struct {
	base

	tasks []*Task
	index int

	// nested drains in progress
	draining int
}

func NewQueue(name string, callbacks Callbacks) *Queue {
	return &Queue{base: base{name: name, callbacks: callbacks}}
}

// Enqueue appends a task. Enqueuing into an idle queue with nothing left to
// run fires OnFirstTask, including after a flush aborted by a panic.
func (q *Queue) Enqueue(fn *Handler, context any, args []any, meta Meta) {
	isFirst := q.draining == 0 && q.TasksRemainingCount() == 0

	q.tasks = append(q.tasks, q.newTask(fn, context, args, meta))

	if isFirst {
		q.firstTask()
	}
}

// Flush drains the queue by advancing a cursor, so the slice can grow while draining.
// A nested Flush shares the cursor and finishes the pass for its caller.
func (q *Queue) Flush() {
	q.drain()

	q.index = 0
	q.tasks = nil

	q.complete()
}

func (q *Queue) drain() {
	q.draining++
	defer func() { q.draining-- }()

	for q.index < len(q.tasks) {
		task := q.tasks[q.index]
		q.index++
		q.run(task)
	}
}

func (q *Queue) TasksRemainingCount() int {
	return len(q.tasks) - q.index
}

func (q *Queue) IsEnqueued(fn *Handler) bool {
	for i := q.index; i < len(q.tasks); i++ {
		if q.tasks[i].Fn == fn {
			return true
		}
	}
	return false
}

// CompletionQueue is a Queue whose re-entrant flushes are no-ops.
type CompletionQueue struct {
	Queue

	flushCount int
}

func NewCompletionQueue(name string, callbacks Callbacks) *CompletionQueue {
	return &CompletionQueue{Queue: Queue{base: base{name: name, callbacks: callbacks}}}
}

func (q *CompletionQueue) Flush() {
	if q.flushCount != 0 {
		return
	}

	q.drain()

	q.index = 0
	q.tasks = nil

	q.complete()
}

func (q *CompletionQueue) drain() {
	q.flushCount++
	defer func() { q.flushCount-- }()

	q.Queue.drain()
}
