package queues

import "fmt"

// Handler is a schedulable reaction.
// Its pointer is its identity: priority queues and handler trees compare
// handlers by pointer, never by the function they wrap.
type Handler struct {
	name string
	fn   func(args ...any)
}

func NewHandler(name string, fn func(args ...any)) *Handler {
	return &Handler{name: name, fn: fn}
}

func (h *Handler) Name() string {
	if h.name == "" {
		return fmt.Sprintf("handler(%p)", h)
	}
	return h.name
}

func (h *Handler) Call(args ...any) {
	h.fn(args...)
}

func (h *Handler) String() string { return h.Name() }

// Meta carries scheduling and causal information about a task.
type Meta struct {
	// Priority orders tasks in a PriorityQueue, lower runs first.
	Priority int

	// ParentTask is the task that was running when this one was enqueued.
	ParentTask *Task

	// Log describes the task in logs and stacks.
	Log []any

	// ReasonLog describes why the task was enqueued.
	ReasonLog []any
}

type Task struct {
	Fn      *Handler
	Context any
	Args    []any
	Meta    Meta

	queue string
}

// Queue returns the name of the queue the task was enqueued in.
func (t *Task) Queue() string { return t.queue }

func (t *Task) String() string {
	if len(t.Meta.Log) > 0 {
		return fmt.Sprint(t.Meta.Log...)
	}
	return t.Fn.Name()
}
