// Package structs resolves the declared shape of Go struct types and
// converts struct values into the plain maps and slices the rule engine
// validates.
package structs

import (
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
)

// Field is one property in a struct's declared shape.
type Field struct {
	Key       string // external key: json tag name, or the field name
	Name      string // Go field name
	Type      reflect.Type
	Index     []int // for reflect.Value.FieldByIndex
	Tag       reflect.StructTag
	OmitEmpty bool
}

// Promoted reports whether the field comes from an embedded struct.
func (f Field) Promoted() bool { return len(f.Index) > 1 }

var timeType = reflect.TypeFor[time.Time]()

// IsTime reports whether t (after Indirect) is time.Time.
func IsTime(t reflect.Type) bool { return Indirect(t) == timeType }

// Indirect strips pointer levels from t.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Key applies the repository-wide rule to resolve a struct field's external
// key. Priority: json tag name > field name; "-" disables the field.
func Key(sf reflect.StructField) string {
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt
		}
	}
	return sf.Name
}

func omitEmpty(sf reflect.StructField) bool {
	jt := sf.Tag.Get("json")
	i := strings.IndexByte(jt, ',')
	return i >= 0 && strings.Contains(jt[i:], ",omitempty")
}

// hasExplicitName reports whether the json tag names the field.
func hasExplicitName(sf reflect.StructField) bool { return namedByTag(sf.Tag) }

func namedByTag(tag reflect.StructTag) bool {
	jt := tag.Get("json")
	if i := strings.IndexByte(jt, ','); i >= 0 {
		jt = jt[:i]
	}
	return jt != "" && jt != "-"
}

// EmbeddedStruct reports whether sf is an anonymous struct field whose
// fields are promoted into the outer shape.
func EmbeddedStruct(sf reflect.StructField) bool {
	if !sf.Anonymous || hasExplicitName(sf) || sf.Tag.Get("json") == "-" {
		return false
	}
	t := Indirect(sf.Type)
	return t.Kind() == reflect.Struct && t != timeType
}

var shapes sync.Map // reflect.Type -> []Field

// Fields returns the declared shape of struct type t: exported fields in
// declaration order, with the fields of embedded structs flattened in place.
// Key conflicts resolve like encoding/json: the shallowest field wins, a
// json-named field beats unnamed ones at the same depth, and any other tie
// drops the key.
func Fields(t reflect.Type) []Field {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if v, ok := shapes.Load(t); ok {
		return v.([]Field)
	}
	fields := collect(t, nil, map[reflect.Type]bool{})
	byKey := make(map[string][]Field, len(fields))
	for _, f := range fields {
		byKey[f.Key] = append(byKey[f.Key], f)
	}
	out := make([]Field, 0, len(byKey))
	for _, f := range fields {
		group := byKey[f.Key]
		if group == nil {
			continue
		}
		delete(byKey, f.Key)
		if d, ok := dominant(group); ok {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Field) int { return slices.Compare(a.Index, b.Index) })
	v, _ := shapes.LoadOrStore(t, out)
	return v.([]Field)
}

// dominant picks the field that owns a key among fields sharing it.
func dominant(group []Field) (Field, bool) {
	depth := len(group[0].Index)
	for _, f := range group[1:] {
		depth = min(depth, len(f.Index))
	}
	var (
		shallow      []Field
		named        Field
		namedMatches int
	)
	for _, f := range group {
		if len(f.Index) != depth {
			continue
		}
		shallow = append(shallow, f)
		if namedByTag(f.Tag) {
			named = f
			namedMatches++
		}
	}
	switch {
	case len(shallow) == 1:
		return shallow[0], true
	case namedMatches == 1:
		return named, true
	}
	return Field{}, false
}

func collect(t reflect.Type, index []int, visiting map[reflect.Type]bool) []Field {
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(index[:len(index):len(index)], i)
		if EmbeddedStruct(sf) {
			out = append(out, collect(Indirect(sf.Type), idx, visiting)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		key := Key(sf)
		if key == "-" {
			continue
		}
		out = append(out, Field{
			Key:       key,
			Name:      sf.Name,
			Type:      sf.Type,
			Index:     idx,
			Tag:       sf.Tag,
			OmitEmpty: omitEmpty(sf),
		})
	}
	return out
}

// Lookup finds the field with the given external key.
func Lookup(t reflect.Type, key string) (Field, bool) {
	for _, f := range Fields(t) {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Name describes t for messages, falling back to its struct literal when
// the type is anonymous.
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	t = Indirect(t)
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
