// Package rule is the validation engine behind classkema: immutable,
// chainable schemas per value kind, a table of named rules per Engine, and a
// walker that validates plain Go values (maps, slices, scalars, time.Time)
// and collects Issues.
//
// Schemas never mutate. Every builder method returns a new Schema, so a
// fragment can be refined by several callers without affecting the others:
//
//	name := rule.Default.String().Min(1)
//	short := name.Max(10)
//	long := name.Max(100) // name itself still only has "min"
//
// Messages are rendered through the i18n package using codes such as
// "string.min" or "any.required".
package rule
