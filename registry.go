package classkema

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

// TagName is the struct tag read for declarations, e.g.
// `classkema:"string,min=3,required"`.
const TagName = "classkema"

// maxAncestors bounds the inheritance walk.
const maxAncestors = 32

// WorkingSchema maps property keys to their current fragment. Keys keep the
// position of their first declaration.
type WorkingSchema struct {
	m *orderedmap.OrderedMap[string, rule.Schema]
}

func newWorkingSchema() WorkingSchema {
	return WorkingSchema{m: orderedmap.New[string, rule.Schema]()}
}

// Get returns the fragment for key.
func (w WorkingSchema) Get(key string) (rule.Schema, bool) {
	if w.m == nil {
		return rule.Schema{}, false
	}
	return w.m.Get(key)
}

// Len returns the number of properties.
func (w WorkingSchema) Len() int {
	if w.m == nil {
		return 0
	}
	return w.m.Len()
}

// Keys returns the property keys in order.
func (w WorkingSchema) Keys() []string {
	out := make([]string, 0, w.Len())
	w.Each(func(k string, _ rule.Schema) { out = append(out, k) })
	return out
}

// Each calls fn for every property in order.
func (w WorkingSchema) Each(fn func(key string, s rule.Schema)) {
	if w.m == nil {
		return
	}
	for p := w.m.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

func (w WorkingSchema) set(key string, s rule.Schema) { w.m.Set(key, s) }

func (w WorkingSchema) clone() WorkingSchema {
	out := newWorkingSchema()
	w.Each(out.set)
	return out
}

type classRule struct {
	name string
	args []any
}

// record is the per-class metadata attached to a reflect.Type.
type record struct {
	typ     reflect.Type
	parent  reflect.Type // set by Extends; otherwise derived from embedding
	own     WorkingSchema
	rules   []classRule
	unknown *bool
	frozen  bool
	err     error // struct tag errors, reported by Decorate and Compile
	version int
	tags    sync.Once
}

// stage copies the declarable state of rec. Decorators work on the copy
// without holding the registry lock.
func (rec *record) stage() *record {
	return &record{
		typ:     rec.typ,
		parent:  rec.parent,
		own:     rec.own.clone(),
		rules:   slices.Clone(rec.rules),
		unknown: rec.unknown,
	}
}

func (rec *record) commit(stage *record) {
	rec.own, rec.rules, rec.unknown, rec.parent = stage.own, stage.rules, stage.unknown, stage.parent
	rec.version++
}

// Registry is the side table holding per-class working schemas, class
// rules and compiled schemas. The zero value is not usable; use
// NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	engine   *rule.Engine
	logger   *slog.Logger
	records  map[reflect.Type]*record
	compiled map[reflect.Type]rule.Schema
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEngine selects the rule engine fragments are built from.
func WithEngine(e *rule.Engine) RegistryOption {
	return func(r *Registry) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithRegistryLogger sets the logger used for compile diagnostics.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry using rule.Default.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		engine:   rule.Default,
		logger:   slog.Default(),
		records:  make(map[reflect.Type]*record),
		compiled: make(map[reflect.Type]rule.Schema),
	}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// DefaultRegistry backs the package-level Decorate and Validate helpers.
var DefaultRegistry = NewRegistry()

// Engine returns the registry's rule engine.
func (r *Registry) Engine() *rule.Engine { return r.engine }

// Reset drops every record and compiled schema.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.records)
	clear(r.compiled)
}

// OwnFragments returns a snapshot of the class's own working schema,
// creating the record if needed.
func (r *Registry) OwnFragments(t reflect.Type) WorkingSchema {
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordLocked(t)
	if !ok {
		return newWorkingSchema()
	}
	return rec.own.clone()
}

// MergedFragments merges the working schemas of t and its ancestors, root
// ancestor first, so a descendant's fragment replaces an ancestor's for the
// same key. It is empty when nothing is declared.
func (r *Registry) MergedFragments(t reflect.Type) WorkingSchema {
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordLocked(t)
	if !ok {
		return newWorkingSchema()
	}
	chain, err := r.chainLocked(rec)
	if err != nil {
		return newWorkingSchema()
	}
	return mergeChain(chain)
}

// Fragment returns the class's own current fragment for prop.
func (r *Registry) Fragment(t reflect.Type, prop string) (rule.Schema, bool) {
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recordLocked(t)
	if !ok {
		return rule.Schema{}, false
	}
	return rec.own.Get(prop)
}

// SetFragment replaces the class's own fragment for prop.
func (r *Registry) SetFragment(t reflect.Type, prop string, s rule.Schema) {
	r.prepare(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recordLocked(t); ok {
		rec.own.set(prop, s)
		rec.version++
	}
}

// recordLocked returns the record for t, creating an empty one on first
// sight. It reports false for non-struct types.
func (r *Registry) recordLocked(t reflect.Type) (*record, bool) {
	t = structs.Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	if rec, ok := r.records[t]; ok {
		return rec, true
	}
	rec := &record{typ: t, own: newWorkingSchema()}
	r.records[t] = rec
	return rec, true
}

// prepare creates the records of t, the structs it embeds and its explicit
// parent, applying their struct tags without holding the lock.
func (r *Registry) prepare(t reflect.Type) { r.prepareSeen(t, map[reflect.Type]bool{}) }

func (r *Registry) prepareSeen(t reflect.Type, seen map[reflect.Type]bool) {
	t = structs.Indirect(t)
	if t == nil || t.Kind() != reflect.Struct || seen[t] {
		return
	}
	seen[t] = true
	r.mu.Lock()
	rec, _ := r.recordLocked(t)
	parent := rec.parent
	r.mu.Unlock()

	rec.tags.Do(func() {
		stage := &record{typ: t, own: newWorkingSchema()}
		err := applyTags(&Class{reg: r, rec: stage})
		r.mu.Lock()
		defer r.mu.Unlock()
		// tag declarations come before anything declared explicitly
		rec.own.Each(stage.own.set)
		rec.own = stage.own
		rec.rules = append(stage.rules, rec.rules...)
		if rec.unknown == nil {
			rec.unknown = stage.unknown
		}
		rec.err = err
	})

	for _, e := range embeddedStructs(t) {
		r.prepareSeen(e, seen)
	}
	if parent != nil {
		r.prepareSeen(parent, seen)
	}
}

// embeddedStructs lists the embedded structs whose fields are promoted.
func embeddedStructs(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		if sf := t.Field(i); structs.EmbeddedStruct(sf) {
			if e := structs.Indirect(sf.Type); !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// parentLocked returns the parent class of rec: the one set with Extends,
// otherwise the only embedded struct that declares anything. Embedded
// structs without declarations are plain mixins.
func (r *Registry) parentLocked(rec *record) (reflect.Type, error) {
	if rec.parent != nil {
		return rec.parent, nil
	}
	var found []reflect.Type
	for _, e := range embeddedStructs(rec.typ) {
		if r.declaresLocked(e, map[reflect.Type]bool{rec.typ: true}) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, e := range found {
		names[i] = structs.Name(e)
	}
	return nil, &ConstraintDefinitionError{
		Class:  structs.Name(rec.typ),
		Reason: fmt.Sprintf("embeds several declared classes (%s); choose the parent with Extends", strings.Join(names, ", ")),
	}
}

// declaresLocked reports whether t or one of its ancestors holds fragments,
// class rules or an unknown-key policy.
func (r *Registry) declaresLocked(t reflect.Type, visiting map[reflect.Type]bool) bool {
	if visiting[t] {
		return false
	}
	visiting[t] = true
	rec, ok := r.recordLocked(t)
	if !ok {
		return false
	}
	if rec.own.Len() > 0 || len(rec.rules) > 0 || rec.unknown != nil || rec.err != nil {
		return true
	}
	if rec.parent != nil {
		return r.declaresLocked(rec.parent, visiting)
	}
	for _, e := range embeddedStructs(t) {
		if r.declaresLocked(e, visiting) {
			return true
		}
	}
	return false
}

// chainLocked lists rec and its ancestors, root ancestor first.
func (r *Registry) chainLocked(rec *record) ([]*record, error) {
	chain := []*record{rec}
	seen := map[reflect.Type]bool{rec.typ: true}
	for cur := rec; ; {
		parent, err := r.parentLocked(cur)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		if len(chain) > maxAncestors {
			return nil, &ConstraintDefinitionError{Class: structs.Name(rec.typ), Reason: fmt.Sprintf("inheritance chain deeper than %d classes", maxAncestors)}
		}
		if seen[parent] {
			return nil, &ConstraintDefinitionError{Class: structs.Name(rec.typ), Reason: "inheritance cycle through " + structs.Name(parent)}
		}
		seen[parent] = true
		prec, ok := r.recordLocked(parent)
		if !ok {
			break
		}
		chain = append(chain, prec)
		cur = prec
	}
	slices.Reverse(chain)
	return chain, nil
}

func mergeChain(chain []*record) WorkingSchema {
	out := newWorkingSchema()
	for _, rec := range chain {
		rec.own.Each(out.set)
	}
	return out
}

// Class is the handle decorators receive: a staged copy of one class's
// record, committed to the registry once every declaration has run.
// Decorators run without the registry lock and may compile or validate
// other classes.
type Class struct {
	reg *Registry
	rec *record
}

// Type returns the struct type.
func (c *Class) Type() reflect.Type { return c.rec.typ }

// Name returns the class name, or its struct literal when anonymous.
func (c *Class) Name() string { return structs.Name(c.rec.typ) }

// Engine returns the engine fragments are built from.
func (c *Class) Engine() *rule.Engine { return c.reg.engine }

// Fragment returns the class's own fragment for prop.
func (c *Class) Fragment(prop string) (rule.Schema, bool) { return c.rec.own.Get(prop) }

// SetFragment replaces the class's own fragment for prop.
func (c *Class) SetFragment(prop string, s rule.Schema) { c.rec.own.set(prop, s) }

// DeclaredType returns the Go type of the property with external key prop,
// looking through embedded structs.
func (c *Class) DeclaredType(prop string) (reflect.Type, bool) {
	f, ok := structs.Lookup(c.rec.typ, prop)
	if !ok {
		return nil, false
	}
	return f.Type, true
}

// HasProperty reports whether prop is part of the declared shape or already
// has a fragment.
func (c *Class) HasProperty(prop string) bool {
	if _, ok := c.Fragment(prop); ok {
		return true
	}
	_, ok := c.DeclaredType(prop)
	return ok
}

// AddRule attaches a class-level object rule such as "and" or "xor".
func (c *Class) AddRule(name string, args ...any) error {
	if !c.reg.engine.Supports(rule.KindObject, name) {
		return &NotImplementedError{Feature: name, Kind: rule.KindObject, Class: c.Name()}
	}
	if _, err := c.reg.engine.Object().Rule(name, args...); err != nil {
		return definitionError(c, "", "%v", err)
	}
	c.rec.rules = append(c.rec.rules, classRule{name: name, args: args})
	return nil
}

// SetParent overrides the parent class derived from embedding.
func (c *Class) SetParent(parent reflect.Type) error {
	parent = structs.Indirect(parent)
	if parent == nil || parent.Kind() != reflect.Struct {
		return definitionError(c, "", "parent %v is not a struct type", parent)
	}
	if parent == c.rec.typ {
		return definitionError(c, "", "a class cannot extend itself")
	}
	c.reg.prepare(parent)
	c.rec.parent = parent
	return nil
}

// SetUnknown fixes whether undeclared keys are accepted for this class and
// its descendants, unless a descendant sets its own policy.
func (c *Class) SetUnknown(allow bool) { c.rec.unknown = &allow }
