package structs

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

const maxPlainDepth = 64

// ToPlain converts v into the value shapes the rule engine understands:
// structs become map[string]any keyed by external key, slices and arrays
// become []any, string-keyed maps become map[string]any, time.Time is kept.
// Nil pointers, interfaces, maps, slices and funcs are absent, as are
// omitempty zero values; absent struct fields are left out of the map.
func ToPlain(v any) any {
	out, _ := plain(reflect.ValueOf(v), 0)
	return out
}

func plain(rv reflect.Value, depth int) (any, bool) {
	if !rv.IsValid() || depth > maxPlainDepth {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return plain(rv.Elem(), depth+1)
	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface(), true
		}
		m := make(map[string]any)
		for _, f := range Fields(rv.Type()) {
			fv, err := rv.FieldByIndexErr(f.Index)
			if err != nil {
				// nil embedded pointer
				continue
			}
			if f.OmitEmpty && fv.IsZero() {
				continue
			}
			if val, ok := plain(fv, depth+1); ok {
				m[f.Key] = val
			}
		}
		return m, true
	case reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface(), true
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, _ := plain(iter.Value(), depth+1)
			m[iter.Key().String()] = val
		}
		return m, true
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i], _ = plain(rv.Index(i), depth+1)
		}
		return out, true
	case reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, false
		}
	}
	if !rv.CanInterface() {
		return nil, false
	}
	return rv.Interface(), true
}

// Decode converts a plain value back into a value of type t through a JSON
// round trip, so json tags govern both directions.
func Decode(plainValue any, t reflect.Type) (reflect.Value, error) {
	raw, err := json.Marshal(plainValue)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("encode %s: %w", Name(t), err)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("decode %s: %w", Name(t), err)
	}
	return ptr.Elem(), nil
}

// Overlay decodes a plain value over a copy of base, so fields the plain
// value does not carry (json:"-", unexported) keep their original values.
// A pointer base is copied one level deep and never written through.
func Overlay(plainValue any, base reflect.Value) (reflect.Value, error) {
	t := base.Type()
	raw, err := json.Marshal(plainValue)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("encode %s: %w", Name(t), err)
	}
	if t.Kind() == reflect.Pointer && !base.IsNil() {
		cp := reflect.New(t.Elem())
		cp.Elem().Set(base.Elem())
		if err := json.Unmarshal(raw, cp.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("decode %s: %w", Name(t), err)
		}
		return cp, nil
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(base)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("decode %s: %w", Name(t), err)
	}
	return ptr.Elem(), nil
}
