package rule

import "sync"

type lazyRef struct {
	target  Kind
	resolve func() (Schema, error)

	mu       sync.Mutex
	resolved bool
	schema   Schema
}

// get resolves once it succeeds; failures are retried on the next call so a
// class decorated later still becomes available.
func (l *lazyRef) get() (Schema, error) {
	l.mu.Lock()
	if l.resolved {
		defer l.mu.Unlock()
		return l.schema, nil
	}
	l.mu.Unlock()
	if l.resolve == nil {
		return Schema{}, errNoResolver
	}
	s, err := l.resolve()
	if err != nil {
		return Schema{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.resolved {
		l.schema, l.resolved = s, true
	}
	return l.schema, nil
}

type lazyError string

func (e lazyError) Error() string { return string(e) }

const errNoResolver = lazyError("rule: lazy schema has no resolver")

// Resolve returns the concrete schema behind a lazy schema, with the flags
// and rules set on the lazy schema applied on top. Other schemas are
// returned unchanged.
func (s Schema) Resolve() (Schema, error) {
	if s.kind != KindLazy {
		return s, nil
	}
	base, err := s.lazy.get()
	if err != nil {
		return s, err
	}
	if base.kind == KindLazy {
		if base, err = base.Resolve(); err != nil {
			return s, err
		}
	}
	out := base
	if s.presence != PresenceDefault {
		out.presence = s.presence
	}
	if s.label != "" {
		out.label = s.label
	}
	if s.description != "" {
		out.description = s.description
	}
	if s.hasDefault {
		out.def, out.hasDefault = s.def, true
	}
	out.allow = appendCopy(out.allow, s.allow)
	out.valid = appendCopy(out.valid, s.valid)
	out.invalid = appendCopy(out.invalid, s.invalid)
	if len(s.items) > 0 && out.kind == KindArray {
		out.items = appendCopy(out.items, s.items)
	}
	if len(s.keys) > 0 && out.kind == KindObject {
		out = out.Keys(s.keys...)
	}
	if s.unknown != nil {
		out.unknown = s.unknown
	}
	out.checks = appendCopy(out.checks, s.checks)
	return out, nil
}
