package classkema

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

// ObjectDecorator declares an object property: a string-keyed map, or a
// nested class when built with Nested or NestedOf.
type ObjectDecorator struct {
	chain[ObjectDecorator]
	// class resolves the nested class; nil for plain objects.
	class func(c *Class, prop string) (reflect.Type, error)
}

// Object declares a map-like property. Without Keys it accepts any key.
func Object() ObjectDecorator {
	return objectDecorator(kindBase(func(e *rule.Engine) rule.Schema { return e.Object() }), nil)
}

func objectDecorator(base func(*Class, string) (rule.Schema, error), class func(*Class, string) (reflect.Type, error)) ObjectDecorator {
	return newChain(base, func(ch chain[ObjectDecorator]) ObjectDecorator {
		return ObjectDecorator{chain: ch, class: class}
	})
}

// Nested declares a property holding another decorated class, taken from
// the property's declared type.
func Nested() ObjectDecorator { return nestedObject(nil) }

// NestedOf declares a property holding the decorated class T.
func NestedOf[T any]() ObjectDecorator { return nestedObject(reflect.TypeFor[T]()) }

func nestedObject(explicit reflect.Type) ObjectDecorator {
	class := func(c *Class, prop string) (reflect.Type, error) { return nestedClass(c, prop, explicit, false) }
	base := func(c *Class, prop string) (rule.Schema, error) {
		t, err := class(c, prop)
		if err != nil {
			return rule.Schema{}, err
		}
		return c.reg.lazyClass(t), nil
	}
	return objectDecorator(base, class)
}

// NestedArray declares a slice property whose elements are the decorated
// class taken from the property's element type.
func NestedArray() ArrayDecorator { return nestedArray(nil) }

// NestedArrayOf declares a slice property whose elements are the decorated
// class T.
func NestedArrayOf[T any]() ArrayDecorator { return nestedArray(reflect.TypeFor[T]()) }

func nestedArray(explicit reflect.Type) ArrayDecorator {
	base := func(c *Class, prop string) (rule.Schema, error) {
		t, err := nestedClass(c, prop, explicit, true)
		if err != nil {
			return rule.Schema{}, err
		}
		return c.Engine().Array(c.reg.lazyClass(t)), nil
	}
	return newChain(base, wrapArray)
}

// nestedClass picks the explicit class or derives it from the declared
// property type (its element type for arrays).
func nestedClass(c *Class, prop string, explicit reflect.Type, array bool) (reflect.Type, error) {
	t := explicit
	if t == nil {
		declared, ok := c.DeclaredType(prop)
		if !ok {
			return nil, nestedTypeUnknown(c, prop, array)
		}
		t = structs.Indirect(declared)
		if array {
			if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
				return nil, nestedTypeUnknown(c, prop, array)
			}
			t = t.Elem()
		}
	}
	t = structs.Indirect(t)
	if t.Kind() != reflect.Struct || structs.IsTime(t) {
		return nil, nestedTypeUnknown(c, prop, array)
	}
	return t, nil
}

// lazyClass refers to the compiled schema of t, compiled on first use so
// classes can reference each other (or themselves) in any order. A failed
// compile is retried on the next validation.
func (r *Registry) lazyClass(t reflect.Type) rule.Schema {
	return r.engine.Lazy(rule.KindObject, func() (rule.Schema, error) {
		s, err := r.Compile(t)
		if err != nil {
			r.logger.Debug("nested class schema unavailable",
				slog.String("class", structs.Name(t)),
				slog.String("err", err.Error()),
			)
		}
		return s, err
	})
}

// Keys declares the accepted keys of a plain object.
func (d ObjectDecorator) Keys(keys func(e *rule.Engine) []rule.Key) ObjectDecorator {
	return d.then(func(c *Class, _ string, s rule.Schema) (rule.Schema, error) {
		return s.Keys(keys(c.Engine())...), nil
	})
}

// Unknown fixes whether undeclared keys are accepted.
func (d ObjectDecorator) Unknown(allow bool) ObjectDecorator {
	return d.flag(func(s rule.Schema) rule.Schema { return s.Unknown(allow) })
}

// And requires that either all or none of peers are present.
func (d ObjectDecorator) And(peers ...string) ObjectDecorator { return d.peerRule("and", peers) }

// Nand forbids all of peers being present together.
func (d ObjectDecorator) Nand(peers ...string) ObjectDecorator { return d.peerRule("nand", peers) }

// Or requires at least one of peers.
func (d ObjectDecorator) Or(peers ...string) ObjectDecorator { return d.peerRule("or", peers) }

// Xor requires exactly one of peers.
func (d ObjectDecorator) Xor(peers ...string) ObjectDecorator { return d.peerRule("xor", peers) }

// Oxor allows at most one of peers.
func (d ObjectDecorator) Oxor(peers ...string) ObjectDecorator { return d.peerRule("oxor", peers) }

// With requires peers whenever key is present.
func (d ObjectDecorator) With(key string, peers ...string) ObjectDecorator {
	return d.peerRule("with", append([]string{key}, peers...))
}

// Without forbids peers whenever key is present.
func (d ObjectDecorator) Without(key string, peers ...string) ObjectDecorator {
	return d.peerRule("without", append([]string{key}, peers...))
}

// peerRule checks the named keys against the nested class's declared shape,
// or the declared keys of a plain object, before attaching the rule.
func (d ObjectDecorator) peerRule(name string, keys []string) ObjectDecorator {
	class := d.class
	return d.then(func(c *Class, prop string, s rule.Schema) (rule.Schema, error) {
		var has func(string) bool
		switch {
		case class != nil:
			t, err := class(c, prop)
			if err != nil {
				return s, err
			}
			has = func(k string) bool {
				_, ok := structs.Lookup(t, k)
				return ok
			}
		case len(s.KeyNames()) > 0:
			names := s.KeyNames()
			has = func(k string) bool { return slices.Contains(names, k) }
		default:
			has = func(string) bool { return true }
		}
		if err := checkPeers(c, prop, keys, has); err != nil {
			return s, err
		}
		out, err := s.Rule(name, keys)
		if err != nil {
			return s, ruleError(c, prop, err)
		}
		return out, nil
	})
}
