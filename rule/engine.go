package rule

import (
	"fmt"
	"maps"
	"sync"
)

// Failure is returned by a Check to reject a value.
type Failure struct {
	Code   string
	Params map[string]any
}

// Fail builds a Failure from alternating key/value params.
func Fail(code string, kv ...any) *Failure {
	f := &Failure{Code: code}
	if len(kv) > 1 {
		f.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				f.Params[k] = kv[i+1]
			}
		}
	}
	return f
}

// Check validates a value that already passed its kind's base coercion. In
// convert mode it may return a normalized value.
type Check func(value any, opts Options) (any, *Failure)

// RuleFunc validates rule arguments when the rule is attached and returns the
// Check to run at validation time.
type RuleFunc func(args ...any) (Check, error)

// Engine is a table of named rules per schema kind. Schemas built from an
// engine can only use the rules it registers.
type Engine struct {
	mu    sync.RWMutex
	rules map[Kind]map[string]RuleFunc
}

// EngineOption customizes an Engine at construction.
type EngineOption func(*Engine)

// WithoutRules removes the named rules for kind.
func WithoutRules(kind Kind, names ...string) EngineOption {
	return func(e *Engine) {
		for _, n := range names {
			delete(e.rules[kind], n)
		}
	}
}

// WithRule registers (or replaces) a rule for kind.
func WithRule(kind Kind, name string, fn RuleFunc) EngineOption {
	return func(e *Engine) { e.set(kind, name, fn) }
}

// NewEngine returns an engine with the built-in rule set.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{rules: make(map[Kind]map[string]RuleFunc)}
	for kind, table := range builtinRules() {
		e.rules[kind] = maps.Clone(table)
	}
	for _, o := range opts {
		if o != nil {
			o(e)
		}
	}
	return e
}

// Default is the engine used by zero Schemas and by callers that do not
// configure one.
var Default = NewEngine()

// Shortcuts for the constructors of Default.

func Any() Schema { return Default.Any() }
func String() Schema { return Default.String() }
func Number() Schema { return Default.Number() }
func Boolean() Schema { return Default.Boolean() }
func Date() Schema { return Default.Date() }
func Func() Schema { return Default.Func() }
func Array(items ...Schema) Schema { return Default.Array(items...) }
func Object(keys ...Key) Schema { return Default.Object(keys...) }

func Lazy(target Kind, resolve func() (Schema, error)) Schema {
	return Default.Lazy(target, resolve)
}

// Extend registers a rule after construction. Schemas already built keep
// the checks they captured.
func (e *Engine) Extend(kind Kind, name string, fn RuleFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set(kind, name, fn)
}

func (e *Engine) set(kind Kind, name string, fn RuleFunc) {
	if e.rules[kind] == nil {
		e.rules[kind] = make(map[string]RuleFunc)
	}
	e.rules[kind][name] = fn
}

// Supports reports whether kind has a rule with the given name.
func (e *Engine) Supports(kind Kind, name string) bool {
	_, ok := e.lookup(kind, name)
	return ok
}

func (e *Engine) lookup(kind Kind, name string) (RuleFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.rules[kind][name]
	return fn, ok
}

// build resolves name for kind into a Check.
func (e *Engine) build(kind Kind, name string, args []any) (Check, error) {
	fn, ok := e.lookup(kind, name)
	if !ok {
		return nil, &UnsupportedRuleError{Kind: kind, Rule: name}
	}
	c, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("rule %s.%s: %w", kind, name, err)
	}
	return c, nil
}

func (e *Engine) newSchema(kind Kind) Schema { return Schema{engine: e, kind: kind} }

// Any returns a schema accepting any value.
func (e *Engine) Any() Schema { return e.newSchema(KindAny) }

// String returns a string schema.
func (e *Engine) String() Schema { return e.newSchema(KindString) }

// Number returns a number schema accepting every Go numeric kind.
func (e *Engine) Number() Schema { return e.newSchema(KindNumber) }

// Boolean returns a boolean schema.
func (e *Engine) Boolean() Schema { return e.newSchema(KindBoolean) }

// Date returns a date schema over time.Time.
func (e *Engine) Date() Schema { return e.newSchema(KindDate) }

// Func returns a function schema.
func (e *Engine) Func() Schema { return e.newSchema(KindFunc) }

// Array returns an array schema; with items every element must match one of
// them.
func (e *Engine) Array(items ...Schema) Schema {
	s := e.newSchema(KindArray)
	if len(items) > 0 {
		s.items = append([]Schema(nil), items...)
	}
	return s
}

// Object returns an object schema. Without keys it accepts any key; with
// keys, undeclared keys are unknown.
func (e *Engine) Object(keys ...Key) Schema {
	s := e.newSchema(KindObject)
	if len(keys) > 0 {
		return s.Keys(keys...)
	}
	return s
}

// Lazy returns a schema resolved on first use, retried until resolve
// succeeds. Rules attached to it are checked against target now and
// applied to the resolved schema.
func (e *Engine) Lazy(target Kind, resolve func() (Schema, error)) Schema {
	s := e.newSchema(KindLazy)
	s.lazy = &lazyRef{target: target, resolve: resolve}
	return s
}

func builtinRules() map[Kind]map[string]RuleFunc {
	return map[Kind]map[string]RuleFunc{
		KindString:  stringRules(),
		KindNumber:  numberRules(),
		KindDate:    dateRules(),
		KindFunc:    funcRules(),
		KindArray:   arrayRules(),
		KindObject:  objectRules(),
		KindBoolean: {},
		KindAny:     {},
	}
}
