package classkema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/classkema/rule"
)

// ConstraintDefinitionError reports a malformed declaration: a duplicate or
// conflicting fragment, a bad rule argument, a class without a schema.
// Definition errors surface when decorating or compiling, never during
// validation.
type ConstraintDefinitionError struct {
	Class    string
	Property string
	Reason   string
}

func (e *ConstraintDefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("classkema: ")
	if e.Class != "" {
		b.WriteString(e.Class)
		if e.Property != "" {
			b.WriteByte('.')
			b.WriteString(e.Property)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

func definitionError(c *Class, prop, format string, args ...any) *ConstraintDefinitionError {
	return &ConstraintDefinitionError{Class: c.Name(), Property: prop, Reason: fmt.Sprintf(format, args...)}
}

// SchemaNotFoundError is returned when a constraint decorator finds no
// fragment for a property and none can be inferred from its declared type.
type SchemaNotFoundError struct {
	ConstraintDefinitionError
}

func (e *SchemaNotFoundError) Unwrap() error { return &e.ConstraintDefinitionError }

func schemaNotFound(c *Class, prop string) *SchemaNotFoundError {
	reason := fmt.Sprintf("no schema found for property %q; declare its type first (for example String() or Nested())", prop)
	if t, ok := c.DeclaredType(prop); ok {
		reason = fmt.Sprintf("no schema can be inferred for property %q of type %s; declare its type first (for example Object() or Nested())", prop, t)
	}
	return &SchemaNotFoundError{ConstraintDefinitionError{Class: c.Name(), Property: prop, Reason: reason}}
}

// NestedPropertyTypeUnknownError is returned when a nested-class decorator
// cannot determine the class of its property.
type NestedPropertyTypeUnknownError struct {
	ConstraintDefinitionError
}

func (e *NestedPropertyTypeUnknownError) Unwrap() error { return &e.ConstraintDefinitionError }

func nestedTypeUnknown(c *Class, prop string, array bool) *NestedPropertyTypeUnknownError {
	what := "nested class"
	if array {
		what = "element class of nested array"
	}
	return &NestedPropertyTypeUnknownError{ConstraintDefinitionError{
		Class:    c.Name(),
		Property: prop,
		Reason:   fmt.Sprintf("cannot determine the %s of property %q; pass it explicitly (for example NestedOf[T]())", what, prop),
	}}
}

// DuplicateSchemaError is returned when a type-establishing decorator is
// applied to a property that already has a fragment.
type DuplicateSchemaError struct {
	ConstraintDefinitionError
	Existing rule.Kind
}

func (e *DuplicateSchemaError) Unwrap() error { return &e.ConstraintDefinitionError }

func duplicateSchema(c *Class, prop string, existing rule.Kind) *DuplicateSchemaError {
	return &DuplicateSchemaError{
		ConstraintDefinitionError: ConstraintDefinitionError{
			Class:    c.Name(),
			Property: prop,
			Reason:   fmt.Sprintf("property %q already has a %s schema; a type can only be declared once", prop, existing),
		},
		Existing: existing,
	}
}

// NotImplementedError is returned when a decorator needs a rule the
// registered engine does not provide.
type NotImplementedError struct {
	Feature  string
	Kind     rule.Kind
	Class    string
	Property string
}

func (e *NotImplementedError) Error() string {
	where := e.Class
	if e.Property != "" {
		where += "." + e.Property
	}
	return fmt.Sprintf("classkema: %s: %q is not implemented for %s schemas by the configured rule engine", where, e.Feature, e.Kind)
}

// InvalidTargetError is returned when validation is asked to check a nil
// target.
type InvalidTargetError struct {
	Array bool
}

func (e *InvalidTargetError) Error() string {
	if e.Array {
		return "classkema: cannot validate a nil target array"
	}
	return "classkema: cannot validate a nil target object"
}

// ArgumentFailure is one rejected argument of a function wrapped by
// ValidateArgs.
type ArgumentFailure struct {
	Index int
	Type  reflect.Type
	// Err is the validation failure, or the error that prevented validation.
	Err error
}

// MultipleValidationError collects every argument that failed validation in
// a single call.
type MultipleValidationError struct {
	Failures []ArgumentFailure
}

func (e *MultipleValidationError) Error() string {
	var b strings.Builder
	if len(e.Failures) == 1 {
		b.WriteString("classkema: 1 argument failed validation")
	} else {
		fmt.Fprintf(&b, "classkema: %d arguments failed validation", len(e.Failures))
	}
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; arg %d (%s): %v", f.Index, f.Type, f.Err)
	}
	return b.String()
}

// Unwrap exposes every per-argument error to errors.Is and errors.As.
func (e *MultipleValidationError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}

func isNilTarget(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
