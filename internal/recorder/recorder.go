package recorder

import (
	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/deps"
)

// Recorder is a stack of recording contexts.
// Reads are attributed to the top context only.
type Recorder struct {
	stack []*deps.Record
}

func New() *Recorder {
	return &Recorder{}
}

// Start pushes a new recording context and returns its record.
func (r *Recorder) Start(name string) *deps.Record {
	record := deps.NewRecord(name)
	r.stack = append(r.stack, record)
	return record
}

// Stop pops the top context and returns its record, or nil if the stack is empty.
// Every Start must be paired with exactly one Stop.
func (r *Recorder) Stop() *deps.Record {
	if len(r.stack) == 0 {
		return nil
	}

	last := len(r.stack) - 1
	record := r.stack[last]
	r.stack[last] = nil
	r.stack = r.stack[:last]
	return record
}

// Top returns the active record, or nil.
func (r *Recorder) Top() *deps.Record {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Recorder) Depth() int { return len(r.stack) }

// IsRecording reports whether a context is active and not ignoring.
func (r *Recorder) IsRecording() bool {
	top := r.Top()
	return top != nil && top.Ignore == 0
}

// Add records a read of obj, or of obj's key when one is given.
func (r *Recorder) Add(obj any, key ...any) {
	top := r.Top()
	if top == nil || top.Ignore != 0 {
		return
	}

	read := deps.Read{Object: obj}
	if len(key) > 0 {
		read.Key = key[0]
		read.Keyed = true
	}

	if top.Traps != nil {
		*top.Traps = append(*top.Traps, read)
		return
	}
	top.AddRead(read)
}

// AddMany records several reads at once.
func (r *Recorder) AddMany(reads []deps.Read) {
	top := r.Top()
	if top == nil || top.Ignore != 0 {
		return
	}

	if top.Traps != nil {
		*top.Traps = append(*top.Traps, reads...)
		return
	}
	for _, read := range reads {
		top.AddRead(read)
	}
}

// Ignore wraps fn so reads it makes are not recorded by the context active when it runs.
func (r *Recorder) Ignore(fn func()) func() {
	return func() {
		top := r.Top()
		if top == nil {
			fn()
			return
		}

		top.Ignore++
		defer func() { top.Ignore-- }()

		fn()
	}
}

// PeekValue reads the value of v without recording it.
func (r *Recorder) PeekValue(v any) any {
	var value any
	r.Ignore(func() { value = capability.GetValue(v) })()
	return value
}

// Trap isolates the following reads of the active context.
// The returned function restores the previous trap and returns the isolated reads.
func (r *Recorder) Trap() func() []deps.Read {
	top := r.Top()
	if top == nil {
		return func() []deps.Read { return []deps.Read{} }
	}

	previous := top.Traps
	traps := []deps.Read{}
	top.Traps = &traps

	return func() []deps.Read {
		top.Traps = previous
		return traps
	}
}

// TrapsCount returns the number of reads trapped so far in the active context.
func (r *Recorder) TrapsCount() int {
	top := r.Top()
	if top == nil || top.Traps == nil {
		return 0
	}
	return len(*top.Traps)
}
