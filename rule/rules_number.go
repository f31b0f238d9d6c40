package rule

import (
	"errors"
	"math"
	"time"
)

func numberRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"min":      numberBound(CodeNumberMin, func(f, l float64) bool { return f >= l }),
		"max":      numberBound(CodeNumberMax, func(f, l float64) bool { return f <= l }),
		"greater":  numberBound(CodeNumberGreater, func(f, l float64) bool { return f > l }),
		"less":     numberBound(CodeNumberLess, func(f, l float64) bool { return f < l }),
		"integer":  numberPredicate(CodeNumberInteger, func(f float64) bool { return f == math.Trunc(f) }),
		"positive": numberPredicate(CodeNumberPositive, func(f float64) bool { return f > 0 }),
		"negative": numberPredicate(CodeNumberNegative, func(f float64) bool { return f < 0 }),
		"port": numberPredicate(CodeNumberPort, func(f float64) bool {
			return f == math.Trunc(f) && f >= 0 && f <= 65535
		}),
		"multiple": multipleRule,
	}
}

func numberBound(code string, ok func(f, limit float64) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 1); err != nil {
			return nil, err
		}
		limit, err := floatArg(args[0])
		if err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			f, _ := toFloat(v)
			if ok(f, limit) {
				return v, nil
			}
			return v, Fail(code, "limit", limit, "value", v)
		}, nil
	}
}

func numberPredicate(code string, ok func(float64) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			f, _ := toFloat(v)
			if ok(f) {
				return v, nil
			}
			return v, Fail(code, "value", v)
		}, nil
	}
}

func multipleRule(args ...any) (Check, error) {
	if err := wantArgs(args, 1); err != nil {
		return nil, err
	}
	base, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, errNonPositiveMultiple
	}
	return func(v any, _ Options) (any, *Failure) {
		f, _ := toFloat(v)
		if math.Mod(f, base) == 0 {
			return v, nil
		}
		return v, Fail(CodeNumberMultiple, "multiple", base, "value", v)
	}, nil
}

var errNonPositiveMultiple = errors.New("multiple must be a positive number")

func dateRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		"min":     dateBound(CodeDateMin, func(t, l time.Time) bool { return !t.Before(l) }),
		"max":     dateBound(CodeDateMax, func(t, l time.Time) bool { return !t.After(l) }),
		"greater": dateBound(CodeDateGreater, func(t, l time.Time) bool { return t.After(l) }),
		"less":    dateBound(CodeDateLess, func(t, l time.Time) bool { return t.Before(l) }),
	}
}

func dateBound(code string, ok func(t, limit time.Time) bool) RuleFunc {
	return func(args ...any) (Check, error) {
		if err := wantArgs(args, 1); err != nil {
			return nil, err
		}
		limit, err := timeArg(args[0])
		if err != nil {
			return nil, err
		}
		return func(v any, _ Options) (any, *Failure) {
			l := limit()
			if ok(v.(time.Time), l) {
				return v, nil
			}
			return v, Fail(code, "limit", l, "value", v)
		}, nil
	}
}
