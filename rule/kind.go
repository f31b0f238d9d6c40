package rule

import "fmt"

// Kind names the value category a Schema validates.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindFunc    Kind = "func"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	// KindLazy is a deferred schema resolved on first use. Its target kind
	// decides which rules may be attached.
	KindLazy Kind = "lazy"
)

// Presence controls how an absent value is treated.
type Presence int

const (
	// PresenceDefault defers to Options.Presence.
	PresenceDefault Presence = iota
	PresenceOptional
	PresenceRequired
	PresenceForbidden
)

func (p Presence) String() string {
	switch p {
	case PresenceOptional:
		return "optional"
	case PresenceRequired:
		return "required"
	case PresenceForbidden:
		return "forbidden"
	default:
		return "default"
	}
}

// ParsePresence maps "optional", "required" and "forbidden" to a Presence.
// The empty string yields PresenceDefault.
func ParsePresence(s string) (Presence, error) {
	switch s {
	case "":
		return PresenceDefault, nil
	case "optional":
		return PresenceOptional, nil
	case "required":
		return PresenceRequired, nil
	case "forbidden":
		return PresenceForbidden, nil
	}
	return PresenceDefault, fmt.Errorf("rule: unknown presence %q", s)
}

// Options tune a single validation run.
type Options struct {
	// Presence applies to schemas whose own presence is PresenceDefault.
	Presence Presence
	// Convert enables type coercion (numeric strings, date strings, case and
	// whitespace normalization).
	Convert bool
	// AbortEarly stops at the first issue.
	AbortEarly bool
	// AllowUnknown accepts object keys that no key schema declares, unless the
	// object schema fixes its own policy.
	AllowUnknown bool
	// StripUnknown removes undeclared object keys instead of reporting them.
	StripUnknown bool
}

// DefaultOptions returns the options used when Validate receives none.
func DefaultOptions() Options {
	return Options{Presence: PresenceOptional, Convert: true, AbortEarly: true}
}
