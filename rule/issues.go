package rule

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes produced by the built-in rules.
const (
	CodeRequired          = "any.required"
	CodeUnknown           = "any.unknown"
	CodeOnly              = "any.only"
	CodeInvalid           = "any.invalid"
	CodeCustom            = "any.custom"
	CodeSchemaUnavailable = "any.schema"

	CodeStringBase      = "string.base"
	CodeStringMin       = "string.min"
	CodeStringMax       = "string.max"
	CodeStringLength    = "string.length"
	CodeStringEmail     = "string.email"
	CodeStringPattern   = "string.pattern.base"
	CodeStringPatternN  = "string.pattern.name"
	CodeStringGUID      = "string.guid"
	CodeStringAlphanum  = "string.alphanum"
	CodeStringLowercase = "string.lowercase"
	CodeStringUppercase = "string.uppercase"
	CodeStringTrim      = "string.trim"
	CodeStringURI       = "string.uri"
	CodeStringIP        = "string.ip"
	CodeStringHex       = "string.hex"

	CodeNumberBase     = "number.base"
	CodeNumberInfinity = "number.infinity"
	CodeNumberMin      = "number.min"
	CodeNumberMax      = "number.max"
	CodeNumberGreater  = "number.greater"
	CodeNumberLess     = "number.less"
	CodeNumberInteger  = "number.integer"
	CodeNumberPositive = "number.positive"
	CodeNumberNegative = "number.negative"
	CodeNumberMultiple = "number.multiple"
	CodeNumberPort     = "number.port"

	CodeBooleanBase = "boolean.base"

	CodeDateBase    = "date.base"
	CodeDateMin     = "date.min"
	CodeDateMax     = "date.max"
	CodeDateGreater = "date.greater"
	CodeDateLess    = "date.less"

	CodeFunctionBase  = "function.base"
	CodeFunctionArity = "function.arity"

	CodeArrayBase     = "array.base"
	CodeArrayMin      = "array.min"
	CodeArrayMax      = "array.max"
	CodeArrayLength   = "array.length"
	CodeArrayUnique   = "array.unique"
	CodeArrayIncludes = "array.includes"

	CodeObjectBase    = "object.base"
	CodeObjectUnknown = "object.unknown"
	CodeObjectAnd     = "object.and"
	CodeObjectNand    = "object.nand"
	CodeObjectMissing = "object.missing"
	CodeObjectXor     = "object.xor"
	CodeObjectOxor    = "object.oxor"
	CodeObjectWith    = "object.with"
	CodeObjectWithout = "object.without"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string `json:"path"` // JSON Pointer (for example: /items/2/price).
	Code    string `json:"code"`
	Message string `json:"message"`
	// Label is the human name used in Message: an explicit label, the dotted
	// path, or "value" at the root.
	Label string `json:"label,omitempty"`
	// Params carries structured parameters (e.g., {"limit": 5}) for i18n and
	// observability.
	Params map[string]any `json:"params,omitempty"`
	// Rule optionally records the rule name that produced this issue.
	Rule string `json:"rule,omitempty"`
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. string.min at /name
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// ValidationError is the failure half of a Result. Its message joins the
// human messages of every issue.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, it := range e.Issues {
		msgs = append(msgs, it.Message)
	}
	return strings.Join(msgs, ". ")
}

// Unwrap exposes the underlying Issues so errors.As(err, &Issues{}) works.
func (e *ValidationError) Unwrap() error { return e.Issues }

// Has reports whether any issue carries the given code.
func (e *ValidationError) Has(code string) bool {
	if e == nil {
		return false
	}
	for _, it := range e.Issues {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Result is the outcome of a validation: the possibly-normalized value and,
// on failure, the error describing every collected issue.
type Result struct {
	Value any
	Error *ValidationError
}

// OK reports whether validation passed.
func (r Result) OK() bool { return r.Error == nil }

// Failed reports whether validation produced at least one issue.
func (r Result) Failed() bool { return r.Error != nil }

// Err returns the failure as an error, or an untyped nil.
func (r Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// UnsupportedRuleError reports that an engine has no rule with the given name
// for a schema kind.
type UnsupportedRuleError struct {
	Kind Kind
	Rule string
}

func (e *UnsupportedRuleError) Error() string {
	return fmt.Sprintf("rule: %q is not supported for %s schemas", e.Rule, e.Kind)
}
