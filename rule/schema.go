package rule

import (
	"fmt"
	"slices"
)

// Key pairs an object key with its schema.
type Key struct {
	Name   string
	Schema Schema
}

// K is shorthand for Key{Name: name, Schema: s}.
func K(name string, s Schema) Key { return Key{Name: name, Schema: s} }

type namedCheck struct {
	name    string
	args    []any
	check   Check
	prepare bool // normalizers run before the other checks
}

// Schema is an immutable validation schema. Every method returns a new
// Schema and leaves the receiver unchanged, so fragments can be shared.
type Schema struct {
	engine      *Engine
	kind        Kind
	presence    Presence
	label       string
	description string
	def         any
	hasDefault  bool
	allow       []any
	valid       []any
	invalid     []any
	checks      []namedCheck
	items       []Schema
	keys        []Key
	keysSet     bool
	unknown     *bool
	lazy        *lazyRef
}

// IsZero reports whether s was never built from an engine.
func (s Schema) IsZero() bool { return s.engine == nil && s.kind == "" }

// Kind returns the schema kind; a zero Schema is KindAny.
func (s Schema) Kind() Kind {
	if s.kind == "" {
		return KindAny
	}
	return s.kind
}

// TargetKind returns the kind a lazy schema resolves to, or Kind otherwise.
func (s Schema) TargetKind() Kind {
	if s.kind == KindLazy {
		return s.lazy.target
	}
	return s.Kind()
}

// Engine returns the engine the schema was built from.
func (s Schema) Engine() *Engine {
	if s.engine == nil {
		return Default
	}
	return s.engine
}

// Presence returns the schema's own presence flag.
func (s Schema) Presence() Presence { return s.presence }

// LabelText returns the explicit label, if any.
func (s Schema) LabelText() string { return s.label }

// Rules lists the names of the attached rules in order.
func (s Schema) Rules() []string {
	out := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		out = append(out, c.name)
	}
	return out
}

// KeyNames lists the declared object keys in order.
func (s Schema) KeyNames() []string {
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k.Name)
	}
	return out
}

// Required marks the value as mandatory.
func (s Schema) Required() Schema { s.presence = PresenceRequired; return s }

// Optional marks the value as optional.
func (s Schema) Optional() Schema { s.presence = PresenceOptional; return s }

// Forbidden rejects any present value.
func (s Schema) Forbidden() Schema { s.presence = PresenceForbidden; return s }

// Label sets the name used in messages instead of the path.
func (s Schema) Label(label string) Schema { s.label = label; return s }

// Description attaches documentation carried into JSON Schema output.
func (s Schema) Description(d string) Schema { s.description = d; return s }

// Default substitutes v when the value is absent.
func (s Schema) Default(v any) Schema { s.def, s.hasDefault = v, true; return s }

// Allow whitelists values that bypass every other check.
func (s Schema) Allow(values ...any) Schema { s.allow = appendCopy(s.allow, values); return s }

// Nullable allows nil.
func (s Schema) Nullable() Schema { return s.Allow(nil) }

// Valid restricts the value to the listed ones.
func (s Schema) Valid(values ...any) Schema { s.valid = appendCopy(s.valid, values); return s }

// Invalid rejects the listed values.
func (s Schema) Invalid(values ...any) Schema { s.invalid = appendCopy(s.invalid, values); return s }

// Custom appends a check that fails with any.custom when fn returns an
// error. A nil error keeps the value fn returns.
func (s Schema) Custom(name string, fn func(value any) (any, error)) Schema {
	c := func(v any, _ Options) (any, *Failure) {
		out, err := fn(v)
		if err != nil {
			return v, Fail(CodeCustom, "error", err.Error(), "name", name)
		}
		return out, nil
	}
	s.checks = appendCopy(s.checks, []namedCheck{{name: name, check: c}})
	return s
}

// Rule attaches the engine rule called name. Unsupported names yield an
// *UnsupportedRuleError; invalid arguments yield a wrapped error.
func (s Schema) Rule(name string, args ...any) (Schema, error) {
	// lazy schemas keep their checks until resolution
	c, err := s.Engine().build(s.TargetKind(), name, args)
	if err != nil {
		return s, err
	}
	s.checks = appendCopy(s.checks, []namedCheck{{name: name, args: args, check: c, prepare: normalizers[name]}})
	return s, nil
}

// MustRule is Rule that panics on error.
func (s Schema) MustRule(name string, args ...any) Schema {
	out, err := s.Rule(name, args...)
	if err != nil {
		panic(err)
	}
	return out
}

// Min applies the kind's "min" rule (length, count, bound or date).
func (s Schema) Min(limit any) Schema { return s.MustRule("min", limit) }

// Max applies the kind's "max" rule.
func (s Schema) Max(limit any) Schema { return s.MustRule("max", limit) }

// Length applies the kind's "length" rule.
func (s Schema) Length(n int) Schema { return s.MustRule("length", n) }

// Pattern requires strings to match re (a string or *regexp.Regexp).
func (s Schema) Pattern(re any) Schema { return s.MustRule("pattern", re) }

// Email requires a valid email address.
func (s Schema) Email() Schema { return s.MustRule("email") }

// Items sets the element schemas of an array schema.
func (s Schema) Items(items ...Schema) Schema {
	if s.TargetKind() != KindArray {
		panic(fmt.Sprintf("rule: Items called on %s schema", s.TargetKind()))
	}
	s.items = appendCopy(s.items, items)
	return s
}

// Keys declares object keys. A key declared twice keeps its first position
// and takes the later schema.
func (s Schema) Keys(keys ...Key) Schema {
	if s.TargetKind() != KindObject {
		panic(fmt.Sprintf("rule: Keys called on %s schema", s.TargetKind()))
	}
	out := slices.Clone(s.keys)
	for _, k := range keys {
		if i := slices.IndexFunc(out, func(x Key) bool { return x.Name == k.Name }); i >= 0 {
			out[i] = k
			continue
		}
		out = append(out, k)
	}
	s.keys, s.keysSet = out, true
	return s
}

// Key returns the schema declared for name on an object schema.
func (s Schema) Key(name string) (Schema, bool) {
	for _, k := range s.keys {
		if k.Name == name {
			return k.Schema, true
		}
	}
	return Schema{}, false
}

// Unknown fixes whether undeclared object keys are accepted, overriding
// Options.AllowUnknown.
func (s Schema) Unknown(allow bool) Schema {
	s.unknown = &allow
	return s
}

// Validate checks v against s. Without opts DefaultOptions apply.
func (s Schema) Validate(v any, opts ...Options) Result {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	w := &walker{opts: o}
	out, _ := s.walk(w, v, true, nil)
	if len(w.issues) > 0 {
		return Result{Value: out, Error: &ValidationError{Issues: w.issues}}
	}
	return Result{Value: out}
}

// appendCopy appends without aliasing the backing array of dst.
func appendCopy[E any](dst, more []E) []E {
	return append(dst[:len(dst):len(dst)], more...)
}
