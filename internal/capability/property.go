package capability

import "reflect"

func indirect(target any) reflect.Value {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// keyFor converts key to t, or returns an invalid value.
func keyFor(key any, t reflect.Type) reflect.Value {
	k := reflect.ValueOf(key)
	if !k.IsValid() {
		return reflect.Value{}
	}
	if k.Type().AssignableTo(t) {
		return k
	}
	if k.Kind() == t.Kind() && k.Type().ConvertibleTo(t) {
		return k.Convert(t)
	}
	return reflect.Value{}
}

func fieldFor(v reflect.Value, key any) reflect.Value {
	name, ok := key.(string)
	if !ok {
		return reflect.Value{}
	}
	f, ok := v.Type().FieldByName(name)
	if !ok || !f.IsExported() {
		return reflect.Value{}
	}
	return v.FieldByIndex(f.Index)
}

func indexFor(v reflect.Value, key any) (int, bool) {
	i, ok := key.(int)
	if !ok || i < 0 || i >= v.Len() {
		return 0, false
	}
	return i, true
}

func getProperty(target, key any) any {
	v := indirect(target)

	switch v.Kind() {
	case reflect.Map:
		k := keyFor(key, v.Type().Key())
		if !k.IsValid() {
			return nil
		}
		if e := v.MapIndex(k); e.IsValid() {
			return e.Interface()
		}
	case reflect.Struct:
		if f := fieldFor(v, key); f.IsValid() {
			return f.Interface()
		}
	case reflect.Slice, reflect.Array:
		if i, ok := indexFor(v, key); ok {
			return v.Index(i).Interface()
		}
	}
	return nil
}

func assignable(val any, t reflect.Type) reflect.Value {
	if val == nil {
		return reflect.Zero(t)
	}
	x := reflect.ValueOf(val)
	if x.Type().AssignableTo(t) {
		return x
	}
	return reflect.Value{}
}

func setProperty(target, key, val any) bool {
	v := indirect(target)

	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return false
		}
		k := keyFor(key, v.Type().Key())
		x := assignable(val, v.Type().Elem())
		if !k.IsValid() || !x.IsValid() {
			return false
		}
		v.SetMapIndex(k, x)
		return true
	case reflect.Struct:
		f := fieldFor(v, key)
		if !f.IsValid() || !f.CanSet() {
			return false
		}
		x := assignable(val, f.Type())
		if !x.IsValid() {
			return false
		}
		f.Set(x)
		return true
	case reflect.Slice, reflect.Array:
		i, ok := indexFor(v, key)
		if !ok || !v.Index(i).CanSet() {
			return false
		}
		x := assignable(val, v.Type().Elem())
		if !x.IsValid() {
			return false
		}
		v.Index(i).Set(x)
		return true
	}
	return false
}

func deleteProperty(target, key any) bool {
	v := indirect(target)

	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return false
		}
		k := keyFor(key, v.Type().Key())
		if !k.IsValid() {
			return false
		}
		v.SetMapIndex(k, reflect.Value{})
		return true
	case reflect.Struct:
		f := fieldFor(v, key)
		if !f.IsValid() || !f.CanSet() {
			return false
		}
		f.SetZero()
		return true
	}
	return false
}

func isPrimitive(target any) bool {
	if target == nil {
		return true
	}
	switch reflect.TypeOf(target).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func isKeyed(target any) bool {
	switch indirect(target).Kind() {
	case reflect.Map, reflect.Struct:
		return true
	}
	return false
}

func isSequence(target any) bool {
	switch indirect(target).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}
