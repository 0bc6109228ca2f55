package capability

import (
	"fmt"

	"github.com/AnatoleLucet/reflow/internal/deps"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

// GetValue returns the value of target, or target itself when it has no value capability.
func GetValue(target any) any {
	if g, ok := target.(ValueGetter); ok {
		return g.GetValue()
	}
	if fn, ok := lookup[func() any](target, GetValueToken); ok {
		return fn()
	}
	return target
}

func SetValue(target, v any) error {
	if s, ok := target.(ValueSetter); ok {
		s.SetValue(v)
		return nil
	}
	if fn, ok := lookup[func(any)](target, SetValueToken); ok {
		fn(v)
		return nil
	}
	return missing("set value", target)
}

// GetKeyValue reads key on target. Without a key capability it reads map
// entries, struct fields and slice elements, returning nil when absent.
func GetKeyValue(target, key any) any {
	if g, ok := target.(KeyGetter); ok {
		return g.GetKeyValue(key)
	}
	if fn, ok := lookup[func(any) any](target, GetKeyValueToken); ok {
		return fn(key)
	}
	return getProperty(target, key)
}

func SetKeyValue(target, key, v any) error {
	if s, ok := target.(KeySetter); ok {
		s.SetKeyValue(key, v)
		return nil
	}
	if fn, ok := lookup[func(any, any)](target, SetKeyValueToken); ok {
		fn(key, v)
		return nil
	}
	if setProperty(target, key, v) {
		return nil
	}
	return missing("set key value", target)
}

func DeleteKeyValue(target, key any) error {
	if d, ok := target.(KeyDeleter); ok {
		d.DeleteKeyValue(key)
		return nil
	}
	if fn, ok := lookup[func(any)](target, DeleteKeyValueToken); ok {
		fn(key)
		return nil
	}
	if deleteProperty(target, key) {
		return nil
	}
	return missing("delete key value", target)
}

func OnValue(target any, h *queues.Handler, queue string) error {
	if o, ok := target.(ValueObservable); ok {
		o.OnValue(h, queue)
		return nil
	}
	if fn, ok := lookup[func(*queues.Handler, string)](target, OnValueToken); ok {
		fn(h, queue)
		return nil
	}
	return missing("listen to value", target)
}

func OffValue(target any, h *queues.Handler, queue string) error {
	if o, ok := target.(ValueObservable); ok {
		o.OffValue(h, queue)
		return nil
	}
	if fn, ok := lookup[func(*queues.Handler, string)](target, OffValueToken); ok {
		fn(h, queue)
		return nil
	}
	return missing("stop listening to value", target)
}

func OnKeyValue(target, key any, h *queues.Handler, queue string) error {
	if o, ok := target.(KeyObservable); ok {
		o.OnKeyValue(key, h, queue)
		return nil
	}
	if fn, ok := lookup[func(any, *queues.Handler, string)](target, OnKeyValueToken); ok {
		fn(key, h, queue)
		return nil
	}
	return missing("listen to key value", target)
}

func OffKeyValue(target, key any, h *queues.Handler, queue string) error {
	if o, ok := target.(KeyObservable); ok {
		o.OffKeyValue(key, h, queue)
		return nil
	}
	if fn, ok := lookup[func(any, *queues.Handler, string)](target, OffKeyValueToken); ok {
		fn(key, h, queue)
		return nil
	}
	return missing("stop listening to key value", target)
}

// GetValueDependencies returns what target's value derives from. It fails
// when target has no such capability, there is no generic answer.
func GetValueDependencies(target any) (*deps.Record, error) {
	if record, ok := valueDependencies(target); ok {
		return record, nil
	}
	return nil, missing("get value dependencies", target)
}

// GetKeyDependencies returns what key of target derives from. It fails when
// target has no such capability.
func GetKeyDependencies(target, key any) (*deps.Record, error) {
	if record, ok := keyDependencies(target, key); ok {
		return record, nil
	}
	return nil, missing("get key dependencies", target)
}

// ValueDependenciesOf is GetValueDependencies for callers walking arbitrary
// observables: a target without the capability derives from nothing.
func ValueDependenciesOf(target any) *deps.Record {
	record, _ := valueDependencies(target)
	return record
}

// KeyDependenciesOf is the non failing form of GetKeyDependencies.
func KeyDependenciesOf(target, key any) *deps.Record {
	record, _ := keyDependencies(target, key)
	return record
}

func valueDependencies(target any) (*deps.Record, bool) {
	if p, ok := target.(ValueDependencyProvider); ok {
		return p.GetValueDependencies(), true
	}
	if fn, ok := lookup[func() *deps.Record](target, GetValueDependenciesToken); ok {
		return fn(), true
	}
	return nil, false
}

func keyDependencies(target, key any) (*deps.Record, bool) {
	if p, ok := target.(KeyDependencyProvider); ok {
		return p.GetKeyDependencies(key), true
	}
	if fn, ok := lookup[func(any) *deps.Record](target, GetKeyDependenciesToken); ok {
		return fn(key), true
	}
	return nil, false
}

func GetPriority(target any) int {
	if p, ok := target.(Prioritized); ok {
		return p.GetPriority()
	}
	if fn, ok := lookup[func() int](target, GetPriorityToken); ok {
		return fn()
	}
	return 0
}

func SetPriority(target any, priority int) error {
	if p, ok := target.(Prioritized); ok {
		p.SetPriority(priority)
		return nil
	}
	if fn, ok := lookup[func(int)](target, SetPriorityToken); ok {
		fn(priority)
		return nil
	}
	return missing("set priority", target)
}

// GetName returns a readable name for target, its Go type by default.
func GetName(target any) string {
	if n, ok := target.(Namer); ok {
		return n.Name()
	}
	if fn, ok := lookup[func() string](target, GetNameToken); ok {
		return fn()
	}
	return fmt.Sprintf("%T", target)
}

// IsObservableLike reports whether target can notify value or key changes.
func IsObservableLike(target any) bool {
	switch target.(type) {
	case ValueObservable, KeyObservable:
		return true
	}
	if _, ok := lookup[func(*queues.Handler, string)](target, OnValueToken); ok {
		return true
	}
	_, ok := lookup[func(any, *queues.Handler, string)](target, OnKeyValueToken)
	return ok
}

// IsValueLike reports whether target holds a single value: primitives and
// anything with a value capability.
func IsValueLike(target any) bool {
	if v, ok := target.(ValueLiker); ok {
		return v.IsValueLike()
	}
	if fn, ok := lookup[func() bool](target, IsValueLikeToken); ok {
		return fn()
	}
	switch target.(type) {
	case ValueGetter, ValueObservable:
		return true
	}
	if _, ok := lookup[func() any](target, GetValueToken); ok {
		return true
	}
	return isPrimitive(target)
}

// IsMapLike reports whether target holds keyed values: maps, structs and
// anything with a key capability.
func IsMapLike(target any) bool {
	if m, ok := target.(MapLiker); ok {
		return m.IsMapLike()
	}
	if fn, ok := lookup[func() bool](target, IsMapLikeToken); ok {
		return fn()
	}
	switch target.(type) {
	case KeyGetter, KeyObservable:
		return true
	}
	if _, ok := lookup[func(any) any](target, GetKeyValueToken); ok {
		return true
	}
	return isKeyed(target)
}

// IsListLike reports whether target is an indexed sequence.
func IsListLike(target any) bool {
	if l, ok := target.(ListLiker); ok {
		return l.IsListLike()
	}
	if fn, ok := lookup[func() bool](target, IsListLikeToken); ok {
		return fn()
	}
	return isSequence(target)
}
