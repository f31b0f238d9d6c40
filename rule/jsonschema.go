package rule

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"
)

// JSONSchema projects s onto a JSON Schema document. Rules without a JSON
// Schema counterpart (custom checks, peers other than with) are omitted.
func (s Schema) JSONSchema() *jsonschema.Schema {
	return s.jsonSchema(map[*lazyRef]bool{})
}

func (s Schema) jsonSchema(seen map[*lazyRef]bool) *jsonschema.Schema {
	if s.kind == KindLazy {
		if seen[s.lazy] {
			return &jsonschema.Schema{Comments: "recursive reference"}
		}
		seen[s.lazy] = true
		defer delete(seen, s.lazy)
		resolved, err := s.Resolve()
		if err != nil {
			return &jsonschema.Schema{Comments: err.Error()}
		}
		return resolved.jsonSchema(seen)
	}

	js := &jsonschema.Schema{Title: s.label, Description: s.description}
	if s.hasDefault {
		js.Default = s.def
	}
	if len(s.valid) > 0 {
		js.Enum = append([]any(nil), s.valid...)
	}

	switch s.Kind() {
	case KindString:
		js.Type = "string"
	case KindNumber:
		js.Type = "number"
	case KindBoolean:
		js.Type = "boolean"
	case KindDate:
		js.Type, js.Format = "string", "date-time"
	case KindArray:
		js.Type = "array"
		switch len(s.items) {
		case 0:
		case 1:
			js.Items = s.items[0].jsonSchema(seen)
		default:
			alts := make([]*jsonschema.Schema, len(s.items))
			for i, it := range s.items {
				alts[i] = it.jsonSchema(seen)
			}
			js.Items = &jsonschema.Schema{AnyOf: alts}
		}
	case KindObject:
		js.Type = "object"
		if s.keysSet {
			js.Properties = jsonschema.NewProperties()
			for _, k := range s.keys {
				js.Properties.Set(k.Name, k.Schema.jsonSchema(seen))
				if k.Schema.presence == PresenceRequired {
					js.Required = append(js.Required, k.Name)
				}
			}
			if s.unknown == nil || !*s.unknown {
				js.AdditionalProperties = jsonschema.FalseSchema
			}
		}
	case KindFunc:
		js.Comments = "function"
	}

	for _, c := range s.checks {
		projectCheck(js, s.Kind(), c)
	}
	return js
}

func projectCheck(js *jsonschema.Schema, kind Kind, c namedCheck) {
	arg := func() any {
		if len(c.args) == 0 {
			return nil
		}
		return c.args[0]
	}
	switch kind {
	case KindString:
		switch c.name {
		case "min":
			js.MinLength = uintPtr(arg())
		case "max":
			js.MaxLength = uintPtr(arg())
		case "length":
			js.MinLength, js.MaxLength = uintPtr(arg()), uintPtr(arg())
		case "email":
			js.Format = "email"
		case "uuid", "guid":
			js.Format = "uuid"
		case "uri":
			js.Format = "uri"
		case "pattern":
			if re, err := regexpArg(arg()); err == nil {
				js.Pattern = re.String()
			}
		case "alphanum":
			js.Pattern = alphanumRe.String()
		case "hex":
			js.Pattern = hexRe.String()
		}
	case KindNumber:
		switch c.name {
		case "min":
			js.Minimum = number(arg())
		case "max":
			js.Maximum = number(arg())
		case "greater":
			js.ExclusiveMinimum = number(arg())
		case "less":
			js.ExclusiveMaximum = number(arg())
		case "multiple":
			js.MultipleOf = number(arg())
		case "integer":
			js.Type = "integer"
		case "port":
			js.Type, js.Minimum, js.Maximum = "integer", "0", "65535"
		}
	case KindArray:
		switch c.name {
		case "min":
			js.MinItems = uintPtr(arg())
		case "max":
			js.MaxItems = uintPtr(arg())
		case "length":
			js.MinItems, js.MaxItems = uintPtr(arg()), uintPtr(arg())
		case "unique":
			js.UniqueItems = true
		}
	case KindObject:
		if c.name == "with" {
			keys, err := stringsArg(c.args)
			if err != nil || len(keys) < 2 {
				return
			}
			if js.DependentRequired == nil {
				js.DependentRequired = map[string][]string{}
			}
			js.DependentRequired[keys[0]] = append(js.DependentRequired[keys[0]], keys[1:]...)
		}
	}
}

func uintPtr(a any) *uint64 {
	n, err := intArg(a)
	if err != nil {
		return nil
	}
	u := uint64(n)
	return &u
}

func number(a any) json.Number {
	f, err := floatArg(a)
	if err != nil {
		return ""
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}
