package queues

import (
	"math"

	"go.uber.org/zap"
)

type bucket struct {
	index int
	tasks []*Task
}

// PriorityQueue buckets tasks by priority and always runs the lowest pending
// priority first. A handler has at most one pending task in the whole queue.
type PriorityQueue struct {
	base

	logger *zap.Logger

	buckets map[int]*bucket

	// for O(1) dedup and lookup
	taskMap map[*Handler]*Task

	tasksRemaining int

	// current and highest priority seen since the last flush ended
	curPriorityIndex int
	curPriorityMax   int

	isFlushing bool
}

func NewPriorityQueue(name string, callbacks Callbacks) *PriorityQueue {
	q := &PriorityQueue{
		base:   base{name: name, callbacks: callbacks},
		logger: zap.NewNop(),
	}
	q.reset()
	return q
}

func (q *PriorityQueue) reset() {
	q.buckets = make(map[int]*bucket)
	q.taskMap = make(map[*Handler]*Task)
	q.curPriorityIndex = math.MaxInt
	q.curPriorityMax = 0
}

func (q *PriorityQueue) Enqueue(fn *Handler, context any, args []any, meta Meta) {
	if _, ok := q.taskMap[fn]; ok {
		if q.sched != nil {
			q.sched.taskCoalesced(q.name, fn)
		}
		return
	}

	isFirst := !q.isFlushing && q.tasksRemaining == 0
	q.tasksRemaining++

	task := q.newTask(fn, context, args, meta)
	b := q.bucketFor(task.Meta.Priority)
	b.tasks = append(b.tasks, task)
	q.taskMap[fn] = task

	if isFirst {
		q.firstTask()
	}
}

func (q *PriorityQueue) bucketFor(priority int) *bucket {
	if priority < q.curPriorityIndex {
		q.curPriorityIndex = priority
	}
	if priority > q.curPriorityMax {
		q.curPriorityMax = priority
	}

	b, ok := q.buckets[priority]
	if !ok {
		b = &bucket{}
		q.buckets[priority] = b
	}
	return b
}

// Flush runs tasks lowest priority first. The current priority is re-read
// after every task, so a task enqueueing lower priority work is preempted by it.
func (q *PriorityQueue) Flush() {
	if q.isFlushing {
		return
	}

	q.drain()
	q.reset()

	q.complete()
}

func (q *PriorityQueue) drain() {
	q.isFlushing = true
	defer func() { q.isFlushing = false }()

	for q.curPriorityIndex <= q.curPriorityMax {
		b := q.buckets[q.curPriorityIndex]
		if b == nil || b.index >= len(b.tasks) {
			next, ok := q.nextPriority()
			if !ok {
				break
			}
			q.curPriorityIndex = next
			continue
		}

		task := b.tasks[b.index]
		b.index++
		q.tasksRemaining--
		delete(q.taskMap, task.Fn)

		q.run(task)
	}
}

// nextPriority returns the lowest priority above the current one with a pending task.
func (q *PriorityQueue) nextPriority() (int, bool) {
	next, ok := 0, false
	for priority, b := range q.buckets {
		if priority <= q.curPriorityIndex || b.index >= len(b.tasks) {
			continue
		}
		if !ok || priority < next {
			next, ok = priority, true
		}
	}
	return next, ok
}

func (q *PriorityQueue) IsEnqueued(fn *Handler) bool {
	_, ok := q.taskMap[fn]
	return ok
}

// Dequeue removes the pending task of fn and returns it, or nil if fn is not pending.
func (q *PriorityQueue) Dequeue(fn *Handler) *Task {
	task, ok := q.taskMap[fn]
	if !ok {
		return nil
	}

	b := q.buckets[task.Meta.Priority]
	if b != nil {
		for i := b.index; i < len(b.tasks); i++ {
			if b.tasks[i] == task {
				b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
				q.tasksRemaining--
				delete(q.taskMap, fn)
				return task
			}
		}
	}

	q.logger.Warn("task has already run",
		zap.String("queue", q.name),
		zap.String("task", fn.Name()),
	)
	return nil
}

// FlushQueuedTask runs the pending task of fn now, out of priority order.
func (q *PriorityQueue) FlushQueuedTask(fn *Handler) {
	if task := q.Dequeue(fn); task != nil {
		q.run(task)
	}
}

func (q *PriorityQueue) TasksRemainingCount() int {
	return q.tasksRemaining
}
