package capability

import (
	"github.com/AnatoleLucet/reflow/internal/deps"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

type ValueGetter interface {
	GetValue() any
}

type ValueSetter interface {
	SetValue(v any)
}

type KeyGetter interface {
	GetKeyValue(key any) any
}

type KeySetter interface {
	SetKeyValue(key, v any)
}

type KeyDeleter interface {
	DeleteKeyValue(key any)
}

// ValueObservable notifies handlers when its whole value changes.
// Handlers are called with (newValue, oldValue).
type ValueObservable interface {
	OnValue(h *queues.Handler, queue string)
	OffValue(h *queues.Handler, queue string)
}

// KeyObservable notifies handlers when the value at a key changes.
type KeyObservable interface {
	OnKeyValue(key any, h *queues.Handler, queue string)
	OffKeyValue(key any, h *queues.Handler, queue string)
}

// ValueDependencyProvider reports what its value is derived from.
type ValueDependencyProvider interface {
	GetValueDependencies() *deps.Record
}

// KeyDependencyProvider reports what the value at a key is derived from.
type KeyDependencyProvider interface {
	GetKeyDependencies(key any) *deps.Record
}

type Prioritized interface {
	GetPriority() int
	SetPriority(priority int)
}

type MapLiker interface {
	IsMapLike() bool
}

type ListLiker interface {
	IsListLike() bool
}

type ValueLiker interface {
	IsValueLike() bool
}

type Namer interface {
	Name() string
}
