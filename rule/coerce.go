package rule

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timeType = reflect.TypeFor[time.Time]()

// coerce applies the base type check of kind and, with opts.Convert, the
// standard conversions. Arrays come back as []any and objects as
// map[string]any copies.
func coerce(kind Kind, v any, opts Options) (any, *Failure) {
	switch kind {
	case KindString:
		if rv := reflect.ValueOf(v); v != nil && rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return v, Fail(CodeStringBase)
	case KindNumber:
		return coerceNumber(v, opts)
	case KindBoolean:
		if rv := reflect.ValueOf(v); v != nil && rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
		if s, ok := v.(string); ok && opts.Convert {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return v, Fail(CodeBooleanBase)
	case KindDate:
		return coerceDate(v, opts)
	case KindFunc:
		if rv := reflect.ValueOf(v); v != nil && rv.Kind() == reflect.Func && !rv.IsNil() {
			return v, nil
		}
		return v, Fail(CodeFunctionBase)
	case KindArray:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return v, Fail(CodeArrayBase)
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v, Fail(CodeArrayBase)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case KindObject:
		if m, ok := v.(map[string]any); ok {
			out := make(map[string]any, len(m))
			for k, e := range m {
				out[k] = e
			}
			return out, nil
		}
		rv := reflect.ValueOf(v)
		if v == nil || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return v, Fail(CodeObjectBase)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	}
	return v, nil
}

func coerceNumber(v any, opts Options) (any, *Failure) {
	f, ok := toFloat(v)
	if !ok {
		s, isStr := v.(string)
		if !isStr || !opts.Convert {
			return v, Fail(CodeNumberBase)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return v, Fail(CodeNumberBase)
		}
		f, v = parsed, parsed
	}
	if math.IsNaN(f) {
		return v, Fail(CodeNumberBase)
	}
	if math.IsInf(f, 0) {
		return v, Fail(CodeNumberInfinity)
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return f, nil
	}
	return v, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func coerceDate(v any, opts Options) (any, *Failure) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	if !opts.Convert {
		return v, Fail(CodeDateBase)
	}
	if s, ok := v.(string); ok {
		if t, ok := parseDate(s); ok {
			return t, nil
		}
		return v, Fail(CodeDateBase)
	}
	if f, ok := toFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	return v, Fail(CodeDateBase)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toFloat converts Go numeric kinds and json.Number to float64.
func toFloat(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

var errArgCount = errors.New("wrong number of arguments")

func wantArgs(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", errArgCount, n, len(args))
	}
	return nil
}

// floatArg accepts numbers and numeric strings, so struct tag arguments
// can be passed through unchanged.
func floatArg(a any) (float64, error) {
	if f, ok := toFloat(a); ok {
		return f, nil
	}
	if s, ok := a.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("expected a number, got %T", a)
}

func intArg(a any) (int, error) {
	f, err := floatArg(a)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("expected a non-negative integer, got %v", a)
	}
	return int(f), nil
}

func regexpArg(a any) (*regexp.Regexp, error) {
	switch re := a.(type) {
	case *regexp.Regexp:
		if re == nil {
			return nil, errors.New("nil pattern")
		}
		return re, nil
	case string:
		return regexp.Compile(re)
	}
	return nil, fmt.Errorf("expected a pattern, got %T", a)
}

// timeArg accepts time.Time, date strings and "now" (resolved per check).
func timeArg(a any) (func() time.Time, error) {
	switch t := a.(type) {
	case time.Time:
		return func() time.Time { return t }, nil
	case string:
		if t == "now" {
			return time.Now, nil
		}
		if parsed, ok := parseDate(t); ok {
			return func() time.Time { return parsed }, nil
		}
		return nil, fmt.Errorf("invalid date %q", t)
	}
	return nil, fmt.Errorf("expected a date, got %T", a)
}

// stringsArg flattens string and []string arguments.
func stringsArg(args []any) ([]string, error) {
	var out []string
	for _, a := range args {
		switch x := a.(type) {
		case string:
			out = append(out, x)
		case []string:
			out = append(out, x...)
		default:
			return nil, fmt.Errorf("expected key names, got %T", a)
		}
	}
	return out, nil
}
