package classkema

import (
	"log/slog"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

// SchemaProvider is implemented by types that carry their own validation
// schema instead of decorated properties. The method is called on the zero
// value, without the registry lock, so it may compile other classes.
type SchemaProvider interface {
	ValidationSchema() rule.Schema
}

var providerType = reflect.TypeFor[SchemaProvider]()

func providedSchema(t reflect.Type) (rule.Schema, bool) {
	switch {
	case t.Kind() == reflect.Interface:
	case t.Implements(providerType):
		return reflect.Zero(t).Interface().(SchemaProvider).ValidationSchema(), true
	case reflect.PointerTo(t).Implements(providerType):
		return reflect.New(t).Interface().(SchemaProvider).ValidationSchema(), true
	}
	return rule.Schema{}, false
}

// Compile returns the object schema for class T in DefaultRegistry.
func Compile[T any]() (rule.Schema, error) { return DefaultRegistry.Compile(reflect.TypeFor[T]()) }

// Compile returns the validation schema for class t: its own schema when t
// implements SchemaProvider, otherwise an object schema over the merged
// fragments of t and its ancestors, with their class rules and unknown-key
// policy. Results are cached, and compiled classes no longer accept
// decorations.
func (r *Registry) Compile(t reflect.Type) (rule.Schema, error) {
	t = structs.Indirect(t)
	if t == nil {
		return rule.Schema{}, &ConstraintDefinitionError{Reason: "cannot compile a nil type"}
	}
	r.mu.Lock()
	s, ok := r.compiled[t]
	r.mu.Unlock()
	if ok {
		return s, nil
	}
	if s, ok := providedSchema(t); ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		if prev, ok := r.compiled[t]; ok {
			return prev, nil
		}
		r.compiled[t] = s
		return s, nil
	}
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compileLocked(t)
}

func (r *Registry) compileLocked(t reflect.Type) (rule.Schema, error) {
	if s, ok := r.compiled[t]; ok {
		return s, nil
	}
	rec, ok := r.recordLocked(t)
	if !ok {
		return rule.Schema{}, &ConstraintDefinitionError{Class: structs.Name(t), Reason: "no validation schema is declared for this type"}
	}
	if rec.err != nil {
		return rule.Schema{}, rec.err
	}
	chain, err := r.chainLocked(rec)
	if err != nil {
		return rule.Schema{}, err
	}
	for _, anc := range chain {
		if anc.err != nil {
			return rule.Schema{}, anc.err
		}
	}

	merged := mergeChain(chain)
	if merged.Len() == 0 {
		return rule.Schema{}, &ConstraintDefinitionError{Class: structs.Name(t), Reason: "no validation schema is declared for this class"}
	}
	keys := make([]rule.Key, 0, merged.Len())
	merged.Each(func(k string, s rule.Schema) { keys = append(keys, rule.K(k, s)) })
	obj := r.engine.Object(keys...)

	var unknown *bool
	for _, anc := range chain {
		for _, cr := range anc.rules {
			if obj, err = obj.Rule(cr.name, cr.args...); err != nil {
				return rule.Schema{}, &ConstraintDefinitionError{Class: structs.Name(anc.typ), Reason: err.Error()}
			}
		}
		if anc.unknown != nil {
			unknown = anc.unknown
		}
	}
	if unknown != nil {
		obj = obj.Unknown(*unknown)
	}

	for _, anc := range chain {
		anc.frozen = true
	}
	r.compiled[t] = obj
	r.logger.Debug("compiled class schema",
		slog.String("class", structs.Name(t)),
		slog.Int("properties", merged.Len()),
		slog.Int("ancestors", len(chain)-1),
	)
	return obj, nil
}

// IsSchemaBearing reports whether t (or the type it points to) can be
// compiled: it provides its own schema or has at least one fragment.
func (r *Registry) IsSchemaBearing(t reflect.Type) bool {
	t = structs.Indirect(t)
	if t == nil {
		return false
	}
	if _, ok := providedSchema(t); ok {
		return true
	}
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.compiled[t]; ok {
		return true
	}
	rec, ok := r.recordLocked(t)
	if !ok {
		return false
	}
	chain, err := r.chainLocked(rec)
	return err == nil && mergeChain(chain).Len() > 0
}

// Describe projects the compiled schema of t onto JSON Schema.
func (r *Registry) Describe(t reflect.Type) (*jsonschema.Schema, error) {
	s, err := r.Compile(t)
	if err != nil {
		return nil, err
	}
	js := s.JSONSchema()
	js.Version = jsonschema.Version
	if js.Title == "" {
		js.Title = structs.Name(t)
	}
	return js, nil
}

// Describe projects the compiled schema of class T in DefaultRegistry onto
// JSON Schema.
func Describe[T any]() (*jsonschema.Schema, error) {
	return DefaultRegistry.Describe(reflect.TypeFor[T]())
}
