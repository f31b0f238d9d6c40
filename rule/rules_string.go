package rule

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// normalizers are rules that rewrite the value in convert mode. They run
// before the other checks of the same schema.
var normalizers = map[string]bool{"trim": true, "lowercase": true, "uppercase": true}

var (
	alphanumRe = regexp.MustCompile(`^[a-zA-Z0-9]*$`)
	hexRe      = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

func stringRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"min":       stringLengthRule(CodeStringMin, func(n, limit int) bool { return n >= limit }),
		"max":       stringLengthRule(CodeStringMax, func(n, limit int) bool { return n <= limit }),
		"length":    stringLengthRule(CodeStringLength, func(n, limit int) bool { return n == limit }),
		"email":     stringPredicate(CodeStringEmail, isEmail),
		"uuid":      stringPredicate(CodeStringGUID, isUUID),
		"guid":      stringPredicate(CodeStringGUID, isUUID),
		"alphanum":  stringPredicate(CodeStringAlphanum, alphanumRe.MatchString),
		"hex":       stringPredicate(CodeStringHex, hexRe.MatchString),
		"uri":       stringPredicate(CodeStringURI, isURI),
		"ip":        stringPredicate(CodeStringIP, func(s string) bool { return net.ParseIP(s) != nil }),
		"pattern":   patternRule,
		"trim":      stringNormalizer(CodeStringTrim, strings.TrimSpace),
		"lowercase": stringNormalizer(CodeStringLowercase, strings.ToLower),
		"uppercase": stringNormalizer(CodeStringUppercase, strings.ToUpper),
	}
}

func stringLengthRule(code string, ok func(n, limit int) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 1); err != nil {
			return nil, err
		}
		limit, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			if ok(utf8.RuneCountInString(v.(string)), limit) {
				return v, nil
			}
			return v, Fail(code, "limit", limit, "value", v)
		}, nil
	}
}

func stringPredicate(code string, ok func(string) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			if ok(v.(string)) {
				return v, nil
			}
			return v, Fail(code, "value", v)
		}, nil
	}
}

// stringNormalizer rewrites the value with fn in convert mode and otherwise
// requires it to already be normalized.
func stringNormalizer(code string, fn func(string) string) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		return func(v any, opts Options) (any, *Failure) {
			s := v.(string)
			if opts.Convert {
				return fn(s), nil
			}
			if fn(s) != s {
				return v, Fail(code, "value", s)
			}
			return v, nil
		}, nil
	}
}

// patternRule takes the pattern and an optional name used in the message.
func patternRule(args ...any) (Check, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, fmt.Errorf("%w: want 1 or 2, got %d", errArgCount, len(args))
	}
	re, err := regexpArg(args[0])
	if err != nil {
		return nil, err
	}
	name := ""
	if len(args) == 2 {
		n, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("expected a pattern name, got %T", args[1])
		}
		name = n
	}
	return func(v any, _ Options) (any, *Failure) {
		if re.MatchString(v.(string)) {
			return v, nil
		}
		if name != "" {
			return v, Fail(CodeStringPatternN, "name", name, "value", v)
		}
		return v, Fail(CodeStringPattern, "regex", "/"+re.String()+"/", "value", v)
	}, nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndexByte(s, '@'):], ".")
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}
