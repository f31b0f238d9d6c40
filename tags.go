package classkema

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/reoring/classkema/internal/structs"
)

// TagFunc turns one struct tag entry into a decorator. field is the
// declared Go field and args the |-separated arguments.
type TagFunc func(field reflect.StructField, args []string) (PropertyDecorator, error)

var (
	tagMu    sync.RWMutex
	tagFuncs map[string]TagFunc
)

// The built-in entries are registered in init: their decorators reach back
// into tag lookup through nested class compilation.
func init() {
	tagFuncs = map[string]TagFunc{
		"any":         typeTag(func() PropertyDecorator { return Any() }),
		"string":      typeTag(func() PropertyDecorator { return String() }),
		"number":      typeTag(func() PropertyDecorator { return Number() }),
		"boolean":     typeTag(func() PropertyDecorator { return Boolean() }),
		"bool":        typeTag(func() PropertyDecorator { return Boolean() }),
		"date":        typeTag(func() PropertyDecorator { return Date() }),
		"func":        typeTag(func() PropertyDecorator { return Func() }),
		"array":       typeTag(func() PropertyDecorator { return Array() }),
		"object":      typeTag(func() PropertyDecorator { return Object() }),
		"nested":      typeTag(func() PropertyDecorator { return Nested() }),
		"nestedarray": typeTag(func() PropertyDecorator { return NestedArray() }),

		"required":  flagTag(Required),
		"optional":  flagTag(Optional),
		"forbidden": flagTag(Forbidden),
		"nullable":  flagTag(Nullable),

		"label":       textTag(Label),
		"description": textTag(Description),
		"default": func(f reflect.StructField, args []string) (PropertyDecorator, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("default takes one value")
			}
			v, err := parseTagValue(f.Type, args[0])
			if err != nil {
				return nil, err
			}
			return Default(v), nil
		},
		"valid":   listTag(Valid),
		"allow":   listTag(Allow),
		"invalid": listTag(Invalid),
		"with":    peersTag(With),
		"without": peersTag(Without),
	}
}

// RegisterTag adds or replaces a struct tag entry. Entries without a
// registered TagFunc are attached as engine rules of the same name.
func RegisterTag(name string, fn TagFunc) {
	tagMu.Lock()
	defer tagMu.Unlock()
	tagFuncs[name] = fn
}

func lookupTag(name string) (TagFunc, bool) {
	tagMu.RLock()
	defer tagMu.RUnlock()
	fn, ok := tagFuncs[name]
	return fn, ok
}

func typeTag(build func() PropertyDecorator) TagFunc {
	return func(_ reflect.StructField, args []string) (PropertyDecorator, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("type entries take no arguments")
		}
		return build(), nil
	}
}

func flagTag(build func() PropertyDecorator) TagFunc {
	return func(_ reflect.StructField, args []string) (PropertyDecorator, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("flag entries take no arguments")
		}
		return build(), nil
	}
}

func textTag(build func(string) PropertyDecorator) TagFunc {
	return func(_ reflect.StructField, args []string) (PropertyDecorator, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one value")
		}
		return build(args[0]), nil
	}
}

func listTag(build func(...any) PropertyDecorator) TagFunc {
	return func(f reflect.StructField, args []string) (PropertyDecorator, error) {
		values := make([]any, len(args))
		for i, a := range args {
			v, err := parseTagValue(f.Type, a)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return build(values...), nil
	}
}

func peersTag(build func(...string) PropertyDecorator) TagFunc {
	return func(_ reflect.StructField, args []string) (PropertyDecorator, error) {
		return build(args...), nil
	}
}

// parseTagValue converts a tag argument to the Go kind of the field so that
// defaults and value lists compare equal to validated values.
func parseTagValue(t reflect.Type, s string) (any, error) {
	t = structs.Indirect(t)
	if structs.IsTime(t) {
		return time.Parse(time.RFC3339Nano, s)
	}
	switch t.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(s, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(s, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(s, 64)
	}
	return s, nil
}

// applyTags decorates the fields declared directly on the class from their
// classkema struct tags. Entries apply left to right. Embedded structs keep
// their tags in their own records.
func applyTags(c *Class) error {
	t := c.Type()
	for _, f := range structs.Fields(t) {
		if f.Promoted() {
			continue
		}
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "" || tag == "-" {
			continue
		}
		items, err := structs.ParseTag(tag)
		if err != nil {
			return definitionError(c, f.Key, "invalid %s tag: %v", TagName, err)
		}
		sf := t.FieldByIndex(f.Index)
		for _, item := range items {
			d, err := tagDecorator(sf, item)
			if err != nil {
				return definitionError(c, f.Key, "invalid %s tag entry %q: %v", TagName, item.Name, err)
			}
			if err := d.DecorateProperty(c, f.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func tagDecorator(sf reflect.StructField, item structs.TagItem) (PropertyDecorator, error) {
	if fn, ok := lookupTag(item.Name); ok {
		return fn(sf, item.Args)
	}
	args := make([]any, len(item.Args))
	for i, a := range item.Args {
		args[i] = a
	}
	return ruleDecorator(item.Name, args...), nil
}
