package classkema

import (
	"errors"
	"reflect"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

// PropertyDecorator updates the fragment of one property.
type PropertyDecorator interface {
	DecorateProperty(c *Class, prop string) error
}

// Declaration is anything Decorate accepts: property declarations from Prop
// and class-level declarations such as Xor or Extends.
type Declaration interface {
	Declare(c *Class) error
}

// DeclarationFunc adapts a function to Declaration.
type DeclarationFunc func(c *Class) error

// Declare calls f(c).
func (f DeclarationFunc) Declare(c *Class) error { return f(c) }

// Decorate applies decls to the class T in DefaultRegistry.
func Decorate[T any](decls ...Declaration) error {
	return DefaultRegistry.Decorate(reflect.TypeFor[T](), decls...)
}

// MustDecorate is Decorate that panics on error, for use in init functions.
func MustDecorate[T any](decls ...Declaration) {
	if err := Decorate[T](decls...); err != nil {
		panic(err)
	}
}

// Decorate applies decls, in order, to the class t. Decorating a class
// after it (or a descendant) has been compiled is an error. Declarations
// applied before a failing one are kept.
func (r *Registry) Decorate(t reflect.Type, decls ...Declaration) error {
	r.prepare(t)
	for attempt := 1; ; attempt++ {
		r.mu.Lock()
		rec, ok := r.recordLocked(t)
		if !ok {
			r.mu.Unlock()
			return &ConstraintDefinitionError{Class: structs.Name(t), Reason: "only struct types can be decorated"}
		}
		if err := decoratable(r, rec); err != nil {
			r.mu.Unlock()
			return err
		}
		stage, version := rec.stage(), rec.version
		r.mu.Unlock()

		err := declare(&Class{reg: r, rec: stage}, decls)

		r.mu.Lock()
		if ferr := decoratable(r, rec); ferr != nil {
			r.mu.Unlock()
			return ferr
		}
		if rec.version != version || r.records[rec.typ] != rec {
			r.mu.Unlock()
			if attempt == maxReplays {
				return definitionError(&Class{reg: r, rec: rec}, "", "class kept changing while it was being decorated")
			}
			// declared concurrently or reset; replay on the current record
			continue
		}
		rec.commit(stage)
		r.mu.Unlock()
		return err
	}
}

// maxReplays bounds how often Decorate restarts after a concurrent change.
const maxReplays = 8

func decoratable(r *Registry, rec *record) error {
	if rec.err != nil {
		return rec.err
	}
	if rec.frozen {
		return definitionError(&Class{reg: r, rec: rec}, "", "class is already compiled; declare constraints before the first validation")
	}
	return nil
}

func declare(c *Class, decls []Declaration) error {
	for _, d := range decls {
		if d == nil {
			continue
		}
		if err := d.Declare(c); err != nil {
			return err
		}
	}
	return nil
}

type propDecl struct {
	name       string
	decorators []PropertyDecorator
}

// Prop declares decorators for the property with external key name. They
// apply in the order given.
func Prop(name string, decorators ...PropertyDecorator) Declaration {
	return propDecl{name: name, decorators: decorators}
}

func (p propDecl) Declare(c *Class) error {
	if p.name == "" {
		return definitionError(c, "", "property name is empty")
	}
	for _, d := range p.decorators {
		if d == nil {
			continue
		}
		if err := d.DecorateProperty(c, p.name); err != nil {
			return err
		}
	}
	return nil
}

// PropertyDecoratorFunc adapts a function to PropertyDecorator.
type PropertyDecoratorFunc func(c *Class, prop string) error

// DecorateProperty calls f(c, prop).
func (f PropertyDecoratorFunc) DecorateProperty(c *Class, prop string) error { return f(c, prop) }

// TypeDecorator builds a type-establishing decorator: it installs the
// schema returned by create and fails with DuplicateSchemaError when the
// property already has one.
func TypeDecorator(create func(e *rule.Engine) rule.Schema) PropertyDecorator {
	return PropertyDecoratorFunc(func(c *Class, prop string) error {
		return establish(c, prop, create(c.Engine()))
	})
}

func establish(c *Class, prop string, s rule.Schema) error {
	if existing, ok := c.Fragment(prop); ok {
		return duplicateSchema(c, prop, existing.TargetKind())
	}
	c.SetFragment(prop, s)
	return nil
}

// ConstraintDecorator builds a decorator that refines the property's
// fragment with apply. Without a fragment, one is inferred from the
// property's declared type.
func ConstraintDecorator(apply func(s rule.Schema) (rule.Schema, error)) PropertyDecorator {
	return PropertyDecoratorFunc(func(c *Class, prop string) error {
		s, err := c.fragmentOrInfer(prop)
		if err != nil {
			return err
		}
		if s, err = apply(s); err != nil {
			return ruleError(c, prop, err)
		}
		c.SetFragment(prop, s)
		return nil
	})
}

// fragmentOrInfer returns the own fragment for prop or the default inferred
// from its declared type.
func (c *Class) fragmentOrInfer(prop string) (rule.Schema, error) {
	if s, ok := c.Fragment(prop); ok {
		return s, nil
	}
	if t, ok := c.DeclaredType(prop); ok {
		if s, ok := Infer(c.Engine(), t); ok {
			return s, nil
		}
	}
	return rule.Schema{}, schemaNotFound(c, prop)
}

// ruleError maps engine errors to the decorator error taxonomy.
func ruleError(c *Class, prop string, err error) error {
	var unsupported *rule.UnsupportedRuleError
	if errors.As(err, &unsupported) {
		return &NotImplementedError{Feature: unsupported.Rule, Kind: unsupported.Kind, Class: c.Name(), Property: prop}
	}
	var definition *ConstraintDefinitionError
	if errors.As(err, &definition) {
		return err
	}
	return definitionError(c, prop, "%v", err)
}

func ruleDecorator(name string, args ...any) PropertyDecorator {
	return ConstraintDecorator(func(s rule.Schema) (rule.Schema, error) { return s.Rule(name, args...) })
}

func flagDecorator(fn func(rule.Schema) rule.Schema) PropertyDecorator {
	return ConstraintDecorator(func(s rule.Schema) (rule.Schema, error) { return fn(s), nil })
}

// Required marks the property as mandatory.
func Required() PropertyDecorator { return flagDecorator(rule.Schema.Required) }

// Optional marks the property as optional.
func Optional() PropertyDecorator { return flagDecorator(rule.Schema.Optional) }

// Forbidden rejects any value for the property.
func Forbidden() PropertyDecorator { return flagDecorator(rule.Schema.Forbidden) }

// Nullable accepts nil for the property.
func Nullable() PropertyDecorator { return flagDecorator(rule.Schema.Nullable) }

// Default fills the property with v when it is absent.
func Default(v any) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Default(v) })
}

// Label names the property in messages.
func Label(label string) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Label(label) })
}

// Description documents the property in JSON Schema output.
func Description(d string) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Description(d) })
}

// Allow accepts the listed values regardless of other rules.
func Allow(values ...any) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Allow(values...) })
}

// Valid restricts the property to the listed values.
func Valid(values ...any) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Valid(values...) })
}

// Invalid rejects the listed values.
func Invalid(values ...any) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Invalid(values...) })
}

// Custom replaces the property's fragment with whatever fn derives from it.
func Custom(fn func(s rule.Schema, e *rule.Engine) (rule.Schema, error)) PropertyDecorator {
	return PropertyDecoratorFunc(func(c *Class, prop string) error {
		s, err := c.fragmentOrInfer(prop)
		if err != nil {
			return err
		}
		if s, err = fn(s, c.Engine()); err != nil {
			return ruleError(c, prop, err)
		}
		c.SetFragment(prop, s)
		return nil
	})
}

// Check appends a named validation function to the property.
func Check(name string, fn func(value any) (any, error)) PropertyDecorator {
	return flagDecorator(func(s rule.Schema) rule.Schema { return s.Custom(name, fn) })
}

// Rule attaches an arbitrary engine rule, including ones registered with
// rule.Engine.Extend.
func Rule(name string, args ...any) PropertyDecorator { return ruleDecorator(name, args...) }

// Min applies the "min" rule of the property's kind.
func Min(limit any) PropertyDecorator { return ruleDecorator("min", limit) }

// Max applies the "max" rule of the property's kind.
func Max(limit any) PropertyDecorator { return ruleDecorator("max", limit) }

// Length applies the "length" rule of the property's kind.
func Length(n int) PropertyDecorator { return ruleDecorator("length", n) }

// Pattern requires string values to match re (a string or *regexp.Regexp).
func Pattern(re any) PropertyDecorator { return ruleDecorator("pattern", re) }

// Email requires a valid email address.
func Email() PropertyDecorator { return ruleDecorator("email") }
