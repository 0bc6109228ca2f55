package internal

import (
	"fmt"

	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/keytree"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

// Hooks run when an event set gets its first handler and loses its last.
type Hooks struct {
	OnBound   func()
	OnUnbound func()
}

func queueOrDefault(queue string) string {
	if queue == "" {
		return queues.MutateQueue
	}
	if !queues.IsQueueName(queue) {
		panic(fmt.Errorf("%w: %q", queues.ErrUnknownQueue, queue))
	}
	return queue
}

func makeMeta(fn *queues.Handler, _ any, _ []any) queues.Meta {
	return queues.Meta{Log: []any{fn.Name()}}
}

// byQueue groups the handlers found under path by queue.
func byQueue(tree *keytree.Tree, path ...any) map[string][]*queues.Handler {
	tasks := map[string][]*queues.Handler{}
	for _, queue := range tree.Keys(path...) {
		for _, h := range tree.Get(append(path, queue)...) {
			tasks[queue.(string)] = append(tasks[queue.(string)], h.(*queues.Handler))
		}
	}
	return tasks
}

// ValueEvents stores value handlers in a [queue, handler] tree and dispatches
// value changes to them through the scheduler. Embed it to implement
// capability.ValueObservable.
type ValueEvents struct {
	rt       *Runtime
	owner    any
	handlers *keytree.Tree
}

// NewValueEvents creates the value handlers of owner. owner is the task
// context of every dispatch.
func (r *Runtime) NewValueEvents(owner any, hooks Hooks) *ValueEvents {
	return &ValueEvents{
		rt:    r,
		owner: owner,
		handlers: keytree.MustNew([]keytree.Kind{keytree.Map, keytree.List}, keytree.Callbacks{
			OnFirst: hooks.OnBound,
			OnEmpty: hooks.OnUnbound,
		}),
	}
}

// OnValue registers h in queue, "mutate" when empty. h is called with (newValue, oldValue).
func (e *ValueEvents) OnValue(h *queues.Handler, queue string) {
	if err := e.handlers.Add(queueOrDefault(queue), h); err != nil {
		panic(err)
	}
}

func (e *ValueEvents) OffValue(h *queues.Handler, queue string) {
	if _, err := e.handlers.Delete([]any{queueOrDefault(queue), h}, nil); err != nil {
		panic(err)
	}
}

// OffAllValue removes every value handler.
func (e *ValueEvents) OffAllValue() {
	if _, err := e.handlers.Delete(nil, nil); err != nil {
		panic(err)
	}
}

func (e *ValueEvents) HandlerCount() int { return e.handlers.Size() }

func (e *ValueEvents) IsBound() bool { return !e.handlers.IsEmpty() }

// Dispatch enqueues every handler in its queue with (newValue, oldValue).
func (e *ValueEvents) Dispatch(newValue, oldValue any) {
	e.rt.drainIfIdle()
	e.rt.Queues.EnqueueByQueue(
		byQueue(e.handlers),
		e.owner,
		[]any{newValue, oldValue},
		makeMeta,
		[]any{capability.GetName(e.owner), "changed to", newValue, "from", oldValue},
	)
}

// KeyEvents stores key handlers in a [key, queue, handler] tree. Embed it to
// implement capability.KeyObservable.
type KeyEvents struct {
	rt       *Runtime
	owner    any
	handlers *keytree.Tree
}

// NewKeyEvents creates the key handlers of owner.
func (r *Runtime) NewKeyEvents(owner any, hooks Hooks) *KeyEvents {
	return &KeyEvents{
		rt:    r,
		owner: owner,
		handlers: keytree.MustNew([]keytree.Kind{keytree.Map, keytree.Map, keytree.List}, keytree.Callbacks{
			OnFirst: hooks.OnBound,
			OnEmpty: hooks.OnUnbound,
		}),
	}
}

// OnKeyValue registers h for changes of key in queue, "mutate" when empty.
func (e *KeyEvents) OnKeyValue(key any, h *queues.Handler, queue string) {
	if err := e.handlers.Add(key, queueOrDefault(queue), h); err != nil {
		panic(err)
	}
}

func (e *KeyEvents) OffKeyValue(key any, h *queues.Handler, queue string) {
	if _, err := e.handlers.Delete([]any{key, queueOrDefault(queue), h}, nil); err != nil {
		panic(err)
	}
}

// KeyHandlerCount counts the handlers of key, or of every key when none is given.
func (e *KeyEvents) KeyHandlerCount(key ...any) int {
	if len(key) == 0 {
		return e.handlers.Size()
	}
	return len(e.handlers.Get(key[0]))
}

// DispatchKey enqueues every handler of key with (newValue, oldValue).
func (e *KeyEvents) DispatchKey(key, newValue, oldValue any) {
	e.rt.drainIfIdle()
	e.rt.Queues.EnqueueByQueue(
		byQueue(e.handlers, key),
		e.owner,
		[]any{newValue, oldValue},
		makeMeta,
		[]any{capability.GetName(e.owner), key, "changed to", newValue, "from", oldValue},
	)
}
