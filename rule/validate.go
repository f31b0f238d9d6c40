package rule

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/reoring/classkema/i18n"
)

type walker struct {
	opts   Options
	issues Issues
}

func (w *walker) aborted() bool { return w.opts.AbortEarly && len(w.issues) > 0 }

func (w *walker) fail(s Schema, p path, f *Failure, ruleName string) {
	label := s.label
	if label == "" {
		label = p.label()
	}
	data := map[string]string{"label": label}
	for k, v := range f.Params {
		data[k] = formatParam(v)
	}
	w.issues = append(w.issues, Issue{
		Path:    p.pointer(),
		Code:    f.Code,
		Message: i18n.T(f.Code, data),
		Label:   label,
		Params:  f.Params,
		Rule:    ruleName,
	})
}

func (s Schema) effectivePresence(o Options) Presence {
	if s.presence != PresenceDefault {
		return s.presence
	}
	if o.Presence == PresenceDefault {
		return PresenceOptional
	}
	return o.Presence
}

// walk validates v at p. present is false when the value is missing (an
// absent object key). It returns the output value and whether it is present.
func (s Schema) walk(w *walker, v any, present bool, p path) (any, bool) {
	if s.kind == KindLazy {
		resolved, err := s.Resolve()
		if err != nil {
			w.fail(s, p, Fail(CodeSchemaUnavailable, "error", err.Error()), "")
			return v, present
		}
		return resolved.walk(w, v, present, p)
	}

	presence := s.effectivePresence(w.opts)
	if !present {
		if presence == PresenceRequired {
			w.fail(s, p, Fail(CodeRequired), "")
			return nil, false
		}
		if s.hasDefault && presence != PresenceForbidden {
			return s.def, true
		}
		return nil, false
	}
	if presence == PresenceForbidden {
		w.fail(s, p, Fail(CodeUnknown), "")
		return v, true
	}
	if containsValue(s.allow, v) {
		return v, true
	}
	if len(s.valid) > 0 {
		if !containsValue(s.valid, v) {
			w.fail(s, p, Fail(CodeOnly, "valids", s.valid), "")
		}
		return v, true
	}
	if containsValue(s.invalid, v) {
		w.fail(s, p, Fail(CodeInvalid, "invalids", s.invalid), "")
		return v, true
	}

	out, f := coerce(s.Kind(), v, w.opts)
	if f != nil {
		w.fail(s, p, f, "")
		return v, true
	}

	switch s.kind {
	case KindArray:
		out = s.walkItems(w, out.([]any), p)
	case KindObject:
		out = s.walkKeys(w, out.(map[string]any), p)
	}
	if w.aborted() {
		return out, true
	}

	run := func(c namedCheck) bool {
		nv, f := c.check(out, w.opts)
		if f != nil {
			w.fail(s, p, f, c.name)
			return w.opts.AbortEarly
		}
		out = nv
		return false
	}
	// normalizers first when converting, then the rest in attach order
	prepareFirst := w.opts.Convert
	if prepareFirst {
		for _, c := range s.checks {
			if c.prepare && run(c) {
				return out, true
			}
		}
	}
	for _, c := range s.checks {
		if prepareFirst && c.prepare {
			continue
		}
		if run(c) {
			return out, true
		}
	}
	return out, true
}

func (s Schema) walkItems(w *walker, items []any, p path) []any {
	if len(s.items) == 0 {
		return items
	}
	out := make([]any, len(items))
	for i, el := range items {
		ip := p.index(i)
		if len(s.items) == 1 {
			out[i], _ = s.items[0].walk(w, el, true, ip)
		} else {
			out[i] = s.matchAnyItem(w, el, ip)
		}
		if w.aborted() {
			copy(out[i+1:], items[i+1:])
			return out
		}
	}
	return out
}

// matchAnyItem returns the output of the first item schema el satisfies.
func (s Schema) matchAnyItem(w *walker, el any, p path) any {
	for _, item := range s.items {
		scratch := &walker{opts: w.opts}
		scratch.opts.AbortEarly = true
		if out, _ := item.walk(scratch, el, true, p); len(scratch.issues) == 0 {
			return out
		}
	}
	w.fail(s, p, Fail(CodeArrayIncludes, "pos", p[len(p)-1]), "")
	return el
}

func (s Schema) walkKeys(w *walker, m map[string]any, p path) map[string]any {
	if !s.keysSet {
		return m
	}
	out := make(map[string]any, len(m))
	for _, k := range s.keys {
		v, ok := m[k.Name]
		nv, present := k.Schema.walk(w, v, ok, p.field(k.Name))
		if present {
			out[k.Name] = nv
		}
		if w.aborted() {
			return out
		}
	}

	var unknown []string
	for k := range m {
		if _, ok := s.Key(k); !ok {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	allow := w.opts.AllowUnknown
	if s.unknown != nil {
		allow = *s.unknown
	}
	for _, k := range unknown {
		switch {
		case w.opts.StripUnknown:
		case allow:
			out[k] = m[k]
		default:
			kp := p.field(k)
			w.issues = append(w.issues, Issue{
				Path:    kp.pointer(),
				Code:    CodeObjectUnknown,
				Message: i18n.T(CodeObjectUnknown, map[string]string{"label": kp.label()}),
				Label:   kp.label(),
				Params:  map[string]any{"key": k},
			})
			if w.opts.AbortEarly {
				return out
			}
		}
	}
	return out
}

// formatParam renders a failure param for message templates. Lists render
// as "[a, b]".
func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e == nil {
				parts[i] = "null"
				continue
			}
			parts[i] = formatParam(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// containsValue compares with equalValues so 5, int64(5) and 5.0 match.
func containsValue(list []any, v any) bool {
	return slices.ContainsFunc(list, func(x any) bool { return equalValues(x, v) })
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}
	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		return ok && maps.EqualFunc(ma, mb, equalValues)
	}
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		return ok && slices.EqualFunc(sa, sb, equalValues)
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
