package internal

import "reflect"

// Value is a leaf observable holding a single value.
type Value struct {
	*ValueEvents

	rt    *Runtime
	name  string
	value any
}

func (r *Runtime) NewValue(initial any, name string) *Value {
	v := &Value{rt: r, name: name, value: initial}
	v.ValueEvents = r.NewValueEvents(v, Hooks{})
	return v
}

// Get returns the value, recording the read.
func (v *Value) Get() any {
	v.rt.Recorder.Add(v)
	return v.value
}

// Set stores value and dispatches the change. It dispatches even when the
// value is unchanged, dependents decide whether that matters.
func (v *Value) Set(value any) {
	old := v.value
	v.value = value
	v.Dispatch(value, old)
}

func (v *Value) GetValue() any  { return v.Get() }
func (v *Value) SetValue(x any) { v.Set(x) }

func (v *Value) Name() string {
	if v.name == "" {
		return "Value"
	}
	return v.name
}

// isEqual reports whether a and b are the same value. Slices, maps and
// pointers are equal when they share their backing storage, functions and
// other non-comparable values never are.
func isEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	}

	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
