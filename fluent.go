package classkema

import (
	"github.com/reoring/classkema/rule"
)

type pendingOp func(c *Class, prop string, s rule.Schema) (rule.Schema, error)

// chain carries the state shared by the fluent type decorators: how to
// build the base fragment, an optional label, and the queued operations.
// Operations are replayed against the engine when the decorator is applied,
// so builders can be declared before the engine is known.
type chain[D any] struct {
	base  func(c *Class, prop string) (rule.Schema, error)
	label *string
	ops   []pendingOp
	wrap  func(chain[D]) D
}

func newChain[D any](base func(c *Class, prop string) (rule.Schema, error), wrap func(chain[D]) D) D {
	return wrap(chain[D]{base: base, wrap: wrap})
}

func kindBase(create func(e *rule.Engine) rule.Schema) func(c *Class, prop string) (rule.Schema, error) {
	return func(c *Class, _ string) (rule.Schema, error) { return create(c.Engine()), nil }
}

func (ch chain[D]) then(op pendingOp) D {
	ch.ops = append(ch.ops[:len(ch.ops):len(ch.ops)], op)
	return ch.wrap(ch)
}

func (ch chain[D]) withRule(name string, args ...any) D {
	return ch.then(func(c *Class, prop string, s rule.Schema) (rule.Schema, error) {
		out, err := s.Rule(name, args...)
		if err != nil {
			return s, ruleError(c, prop, err)
		}
		return out, nil
	})
}

func (ch chain[D]) flag(fn func(rule.Schema) rule.Schema) D {
	return ch.then(func(_ *Class, _ string, s rule.Schema) (rule.Schema, error) { return fn(s), nil })
}

// DecorateProperty installs the built fragment. The property must not have
// a fragment yet.
func (ch chain[D]) DecorateProperty(c *Class, prop string) error {
	if existing, ok := c.Fragment(prop); ok {
		return duplicateSchema(c, prop, existing.TargetKind())
	}
	s, err := ch.base(c, prop)
	if err != nil {
		return err
	}
	if ch.label != nil {
		s = s.Label(*ch.label)
	}
	for _, op := range ch.ops {
		if s, err = op(c, prop, s); err != nil {
			return err
		}
	}
	c.SetFragment(prop, s)
	return nil
}

// Label names the property in messages.
func (ch chain[D]) Label(label string) D {
	ch.label = &label
	return ch.wrap(ch)
}

// Required marks the property as mandatory.
func (ch chain[D]) Required() D { return ch.flag(rule.Schema.Required) }

// Optional marks the property as optional.
func (ch chain[D]) Optional() D { return ch.flag(rule.Schema.Optional) }

// Forbidden rejects any value for the property.
func (ch chain[D]) Forbidden() D { return ch.flag(rule.Schema.Forbidden) }

// Nullable accepts nil.
func (ch chain[D]) Nullable() D { return ch.flag(rule.Schema.Nullable) }

// Default fills the property with v when absent.
func (ch chain[D]) Default(v any) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Default(v) })
}

// Description documents the property in JSON Schema output.
func (ch chain[D]) Description(d string) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Description(d) })
}

// Allow accepts the listed values regardless of other rules.
func (ch chain[D]) Allow(values ...any) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Allow(values...) })
}

// Valid restricts the property to the listed values.
func (ch chain[D]) Valid(values ...any) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Valid(values...) })
}

// Invalid rejects the listed values.
func (ch chain[D]) Invalid(values ...any) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Invalid(values...) })
}

// Check appends a named validation function.
func (ch chain[D]) Check(name string, fn func(value any) (any, error)) D {
	return ch.flag(func(s rule.Schema) rule.Schema { return s.Custom(name, fn) })
}

// Rule attaches an arbitrary engine rule.
func (ch chain[D]) Rule(name string, args ...any) D { return ch.withRule(name, args...) }

// Custom derives the fragment with fn.
func (ch chain[D]) Custom(fn func(s rule.Schema, e *rule.Engine) (rule.Schema, error)) D {
	return ch.then(func(c *Class, prop string, s rule.Schema) (rule.Schema, error) {
		out, err := fn(s, c.Engine())
		if err != nil {
			return s, ruleError(c, prop, err)
		}
		return out, nil
	})
}

// AnyDecorator declares a property accepting any value.
type AnyDecorator struct{ chain[AnyDecorator] }

// Any declares a property of any type.
func Any() AnyDecorator {
	return newChain(kindBase((*rule.Engine).Any), func(ch chain[AnyDecorator]) AnyDecorator { return AnyDecorator{ch} })
}

// StringDecorator declares a string property.
type StringDecorator struct{ chain[StringDecorator] }

// String declares a string property.
func String() StringDecorator {
	return newChain(kindBase((*rule.Engine).String), func(ch chain[StringDecorator]) StringDecorator { return StringDecorator{ch} })
}

// Min requires at least n characters.
func (d StringDecorator) Min(n int) StringDecorator { return d.withRule("min", n) }

// Max allows at most n characters.
func (d StringDecorator) Max(n int) StringDecorator { return d.withRule("max", n) }

// Length requires exactly n characters.
func (d StringDecorator) Length(n int) StringDecorator { return d.withRule("length", n) }

// Email requires a valid email address.
func (d StringDecorator) Email() StringDecorator { return d.withRule("email") }

// Pattern requires a match of re (a string or *regexp.Regexp).
func (d StringDecorator) Pattern(re any) StringDecorator { return d.withRule("pattern", re) }

// PatternName is Pattern with a name used in the failure message.
func (d StringDecorator) PatternName(re any, name string) StringDecorator {
	return d.withRule("pattern", re, name)
}

// UUID requires a UUID.
func (d StringDecorator) UUID() StringDecorator { return d.withRule("uuid") }

// Alphanum allows only ASCII letters and digits.
func (d StringDecorator) Alphanum() StringDecorator { return d.withRule("alphanum") }

// Hex allows only hexadecimal digits.
func (d StringDecorator) Hex() StringDecorator { return d.withRule("hex") }

// URI requires an absolute URI.
func (d StringDecorator) URI() StringDecorator { return d.withRule("uri") }

// IP requires an IPv4 or IPv6 address.
func (d StringDecorator) IP() StringDecorator { return d.withRule("ip") }

// Trim strips surrounding whitespace in convert mode and rejects it
// otherwise.
func (d StringDecorator) Trim() StringDecorator { return d.withRule("trim") }

// Lowercase lowercases in convert mode and rejects uppercase otherwise.
func (d StringDecorator) Lowercase() StringDecorator { return d.withRule("lowercase") }

// Uppercase uppercases in convert mode and rejects lowercase otherwise.
func (d StringDecorator) Uppercase() StringDecorator { return d.withRule("uppercase") }

// NumberDecorator declares a numeric property.
type NumberDecorator struct{ chain[NumberDecorator] }

// Number declares a numeric property.
func Number() NumberDecorator {
	return newChain(kindBase((*rule.Engine).Number), func(ch chain[NumberDecorator]) NumberDecorator { return NumberDecorator{ch} })
}

// Min requires a value >= limit.
func (d NumberDecorator) Min(limit float64) NumberDecorator { return d.withRule("min", limit) }

// Max requires a value <= limit.
func (d NumberDecorator) Max(limit float64) NumberDecorator { return d.withRule("max", limit) }

// Greater requires a value > limit.
func (d NumberDecorator) Greater(limit float64) NumberDecorator { return d.withRule("greater", limit) }

// Less requires a value < limit.
func (d NumberDecorator) Less(limit float64) NumberDecorator { return d.withRule("less", limit) }

// Integer rejects fractional values.
func (d NumberDecorator) Integer() NumberDecorator { return d.withRule("integer") }

// Positive requires a value > 0.
func (d NumberDecorator) Positive() NumberDecorator { return d.withRule("positive") }

// Negative requires a value < 0.
func (d NumberDecorator) Negative() NumberDecorator { return d.withRule("negative") }

// Multiple requires a multiple of base.
func (d NumberDecorator) Multiple(base float64) NumberDecorator { return d.withRule("multiple", base) }

// Port requires an integer in [0, 65535].
func (d NumberDecorator) Port() NumberDecorator { return d.withRule("port") }

// BooleanDecorator declares a boolean property.
type BooleanDecorator struct{ chain[BooleanDecorator] }

// Boolean declares a boolean property.
func Boolean() BooleanDecorator {
	return newChain(kindBase((*rule.Engine).Boolean), func(ch chain[BooleanDecorator]) BooleanDecorator { return BooleanDecorator{ch} })
}

// DateDecorator declares a time.Time property. Limits are time.Time values,
// date strings or "now".
type DateDecorator struct{ chain[DateDecorator] }

// Date declares a date property.
func Date() DateDecorator {
	return newChain(kindBase((*rule.Engine).Date), func(ch chain[DateDecorator]) DateDecorator { return DateDecorator{ch} })
}

// Min requires a date not before limit.
func (d DateDecorator) Min(limit any) DateDecorator { return d.withRule("min", limit) }

// Max requires a date not after limit.
func (d DateDecorator) Max(limit any) DateDecorator { return d.withRule("max", limit) }

// Greater requires a date after limit.
func (d DateDecorator) Greater(limit any) DateDecorator { return d.withRule("greater", limit) }

// Less requires a date before limit.
func (d DateDecorator) Less(limit any) DateDecorator { return d.withRule("less", limit) }

// FuncDecorator declares a function-typed property.
type FuncDecorator struct{ chain[FuncDecorator] }

// Func declares a function property.
func Func() FuncDecorator {
	return newChain(kindBase((*rule.Engine).Func), func(ch chain[FuncDecorator]) FuncDecorator { return FuncDecorator{ch} })
}

// Arity requires exactly n parameters.
func (d FuncDecorator) Arity(n int) FuncDecorator { return d.withRule("arity", n) }

// ArrayDecorator declares a slice or array property.
type ArrayDecorator struct{ chain[ArrayDecorator] }

// Array declares an array property.
func Array() ArrayDecorator {
	return newChain(kindBase(func(e *rule.Engine) rule.Schema { return e.Array() }), wrapArray)
}

func wrapArray(ch chain[ArrayDecorator]) ArrayDecorator { return ArrayDecorator{ch} }

// Items adds an allowed element schema; elements must match one of them.
func (d ArrayDecorator) Items(item func(e *rule.Engine) rule.Schema) ArrayDecorator {
	return d.then(func(c *Class, _ string, s rule.Schema) (rule.Schema, error) {
		return s.Items(item(c.Engine())), nil
	})
}

// Min requires at least n elements.
func (d ArrayDecorator) Min(n int) ArrayDecorator { return d.withRule("min", n) }

// Max allows at most n elements.
func (d ArrayDecorator) Max(n int) ArrayDecorator { return d.withRule("max", n) }

// Length requires exactly n elements.
func (d ArrayDecorator) Length(n int) ArrayDecorator { return d.withRule("length", n) }

// Unique rejects duplicate elements.
func (d ArrayDecorator) Unique() ArrayDecorator { return d.withRule("unique") }
