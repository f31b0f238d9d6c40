package rule_test

import (
	"encoding/json"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/classkema/rule"
)

var e = rule.Default

func codes(res rule.Result) []string {
	if res.Error == nil {
		return nil
	}
	out := make([]string, len(res.Error.Issues))
	for i, it := range res.Error.Issues {
		out[i] = it.Code
	}
	return out
}

func TestValidate_StringRules(t *testing.T) {
	cases := []struct {
		name   string
		schema rule.Schema
		in     any
		code   string
	}{
		{"length ok", e.String().Length(5), "abcde", ""},
		{"length short", e.String().Length(5), "abc", rule.CodeStringLength},
		{"min counts runes", e.String().Min(2), "日本", ""},
		{"max", e.String().Max(2), "abc", rule.CodeStringMax},
		{"email ok", e.String().Email(), "a@example.com", ""},
		{"email bad", e.String().Email(), "not-an-email", rule.CodeStringEmail},
		{"pattern string", e.String().Pattern(`^a+$`), "aaa", ""},
		{"pattern regexp", e.String().Pattern(regexp.MustCompile(`^a+$`)), "b", rule.CodeStringPattern},
		{"named pattern", e.String().MustRule("pattern", `^\d+$`, "digits"), "x", rule.CodeStringPatternN},
		{"uuid", e.String().MustRule("uuid"), "6ba7b810-9dad-11d1-80b4-00c04fd430c8", ""},
		{"uuid bad", e.String().MustRule("guid"), "nope", rule.CodeStringGUID},
		{"alphanum", e.String().MustRule("alphanum"), "ab-1", rule.CodeStringAlphanum},
		{"hex", e.String().MustRule("hex"), "0fA9", ""},
		{"uri", e.String().MustRule("uri"), "https://example.com/x", ""},
		{"uri bad", e.String().MustRule("uri"), "example", rule.CodeStringURI},
		{"ip", e.String().MustRule("ip"), "::1", ""},
		{"not a string", e.String(), 12, rule.CodeStringBase},
		{"nil is not a string", e.String(), nil, rule.CodeStringBase},
		{"empty string allowed", e.String(), "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.schema.Validate(tc.in)
			if tc.code == "" {
				require.True(t, res.OK(), "unexpected issues: %v", res.Err())
				return
			}
			require.True(t, res.Failed())
			assert.Equal(t, tc.code, res.Error.Issues[0].Code)
		})
	}
}

func TestValidate_NamedStringType(t *testing.T) {
	type status string
	res := e.String().Valid("active").Validate(status("active"))
	assert.True(t, res.OK())
	res = e.String().Max(3).Validate(status("active"))
	assert.Equal(t, []string{rule.CodeStringMax}, codes(res))
}

func TestValidate_Normalizers(t *testing.T) {
	s := e.String().Max(3).MustRule("trim").MustRule("lowercase")

	res := s.Validate("  AbC ")
	require.True(t, res.OK(), res.Err())
	assert.Equal(t, "abc", res.Value)

	strict := rule.DefaultOptions()
	strict.Convert = false
	res = s.Validate("abc ", strict)
	assert.Equal(t, []string{rule.CodeStringMax}, codes(res))

	res = e.String().MustRule("trim").Validate(" a", strict)
	assert.Equal(t, []string{rule.CodeStringTrim}, codes(res))
}

func TestValidate_Numbers(t *testing.T) {
	s := e.Number().Min(10)
	assert.True(t, s.Validate(10).OK())
	assert.True(t, s.Validate(int8(12)).OK())
	assert.True(t, s.Validate(uint64(11)).OK())
	assert.True(t, s.Validate(10.5).OK())

	res := s.Validate(3)
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeNumberMin, res.Error.Issues[0].Code)
	assert.Equal(t, `"value" must be greater than or equal to 10`, res.Error.Issues[0].Message)

	res = s.Validate("42")
	require.True(t, res.OK())
	assert.Equal(t, 42.0, res.Value)

	strict := rule.DefaultOptions()
	strict.Convert = false
	assert.Equal(t, []string{rule.CodeNumberBase}, codes(s.Validate("42", strict)))

	assert.Equal(t, []string{rule.CodeNumberBase}, codes(e.Number().Validate(math.NaN())))
	assert.Equal(t, []string{rule.CodeNumberInfinity}, codes(e.Number().Validate(math.Inf(1))))

	res = e.Number().Validate(json.Number("7"))
	require.True(t, res.OK())
	assert.Equal(t, int64(7), res.Value)

	assert.Equal(t, []string{rule.CodeNumberInteger}, codes(e.Number().MustRule("integer").Validate(1.5)))
	assert.Equal(t, []string{rule.CodeNumberMultiple}, codes(e.Number().MustRule("multiple", 3).Validate(7)))
	assert.Equal(t, []string{rule.CodeNumberPort}, codes(e.Number().MustRule("port").Validate(70000)))
	assert.Equal(t, []string{rule.CodeNumberGreater}, codes(e.Number().MustRule("greater", 1).Validate(1)))
	assert.Equal(t, []string{rule.CodeNumberNegative}, codes(e.Number().MustRule("negative").Validate(0)))
}

func TestValidate_BooleanAndDate(t *testing.T) {
	res := e.Boolean().Validate("TRUE")
	require.True(t, res.OK())
	assert.Equal(t, true, res.Value)
	assert.Equal(t, []string{rule.CodeBooleanBase}, codes(e.Boolean().Validate(1)))

	res = e.Date().Validate("2024-03-01T10:00:00Z")
	require.True(t, res.OK())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), res.Value)

	res = e.Date().Validate("2024-03-01")
	require.True(t, res.OK())

	res = e.Date().Validate(int64(0))
	require.True(t, res.OK())
	assert.True(t, res.Value.(time.Time).Equal(time.Unix(0, 0)))

	assert.Equal(t, []string{rule.CodeDateBase}, codes(e.Date().Validate("yesterday")))

	limit := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{rule.CodeDateMin}, codes(e.Date().Min(limit).Validate(limit.Add(-time.Second))))
	assert.True(t, e.Date().Max("2030-01-01").Validate(limit).OK())
}

func TestValidate_Func(t *testing.T) {
	assert.True(t, e.Func().Validate(func(int) {}).OK())
	assert.Equal(t, []string{rule.CodeFunctionBase}, codes(e.Func().Validate("f")))
	assert.Equal(t, []string{rule.CodeFunctionArity}, codes(e.Func().MustRule("arity", 2).Validate(func(int) {})))
}

func TestValidate_Presence(t *testing.T) {
	obj := e.Object(
		rule.K("a", e.String().Required()),
		rule.K("b", e.String()),
		rule.K("c", e.String().Default("x")),
		rule.K("d", e.String().Forbidden()),
	)

	res := obj.Validate(map[string]any{"a": "1"})
	require.True(t, res.OK(), res.Err())
	assert.Equal(t, map[string]any{"a": "1", "c": "x"}, res.Value)

	res = obj.Validate(map[string]any{})
	require.True(t, res.Failed())
	assert.Equal(t, "/a", res.Error.Issues[0].Path)
	assert.Equal(t, `"a" is required`, res.Error.Issues[0].Message)

	res = obj.Validate(map[string]any{"a": "1", "d": "no"})
	assert.Equal(t, []string{rule.CodeUnknown}, codes(res))

	// presence option applies to keys without their own flag
	opts := rule.DefaultOptions()
	opts.Presence = rule.PresenceRequired
	opts.AbortEarly = false
	res = obj.Validate(map[string]any{"a": "1"}, opts)
	assert.Equal(t, []string{rule.CodeRequired, rule.CodeRequired}, codes(res))
}

func TestValidate_AllowValidInvalid(t *testing.T) {
	s := e.String().Min(3).Nullable()
	assert.True(t, s.Validate(nil).OK())

	s = e.Number().Valid(1, 2, 3)
	assert.True(t, s.Validate(int64(2)).OK())
	res := s.Validate(4)
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeOnly, res.Error.Issues[0].Code)
	assert.Equal(t, `"value" must be one of [1, 2, 3]`, res.Error.Issues[0].Message)

	assert.Equal(t, []string{rule.CodeInvalid}, codes(e.String().Invalid("root").Validate("root")))
	// allow bypasses other rules
	assert.True(t, e.String().Min(10).Allow("x").Validate("x").OK())
}

func TestValidate_Label(t *testing.T) {
	obj := e.Object(rule.K("myProperty", e.String().Length(5)))
	res := obj.Validate(map[string]any{"myProperty": "abc"})
	require.True(t, res.Failed())
	assert.Equal(t, `"myProperty" length must be 5 characters long`, res.Error.Issues[0].Message)
	assert.Equal(t, `"myProperty" length must be 5 characters long`, res.Error.Error())

	obj = e.Object(rule.K("myProperty", e.String().Length(5).Label("My property")))
	res = obj.Validate(map[string]any{"myProperty": "abc"})
	require.True(t, res.Failed())
	assert.Equal(t, `"My property" length must be 5 characters long`, res.Error.Issues[0].Message)
}

func TestValidate_NestedPathsAndAbortEarly(t *testing.T) {
	obj := e.Object(
		rule.K("items", e.Array(e.Object(rule.K("sku", e.String().Min(3)))).Min(1)),
		rule.K("name", e.String().Required()),
	)
	in := map[string]any{"items": []any{map[string]any{"sku": "ab"}, map[string]any{"sku": "x"}}}

	res := obj.Validate(in)
	require.True(t, res.Failed())
	require.Len(t, res.Error.Issues, 1)
	assert.Equal(t, "/items/0/sku", res.Error.Issues[0].Path)
	assert.Equal(t, "items[0].sku", res.Error.Issues[0].Label)

	all := rule.DefaultOptions()
	all.AbortEarly = false
	res = obj.Validate(in, all)
	require.True(t, res.Failed())
	assert.Equal(t, []string{rule.CodeStringMin, rule.CodeStringMin, rule.CodeRequired}, codes(res))
	assert.Equal(t, "/items/1/sku", res.Error.Issues[1].Path)

	issues, ok := rule.AsIssues(res.Error)
	require.True(t, ok)
	assert.Len(t, issues, 3)
	assert.Contains(t, issues.Error(), "string.min at /items/0/sku")
}

func TestValidate_Unknown(t *testing.T) {
	obj := e.Object(rule.K("a", e.String()))
	in := map[string]any{"a": "x", "z": 1, "b": 2}

	res := obj.Validate(in)
	require.True(t, res.Failed())
	assert.Equal(t, "/b", res.Error.Issues[0].Path)
	assert.Equal(t, `"b" is not allowed`, res.Error.Issues[0].Message)

	opts := rule.DefaultOptions()
	opts.AllowUnknown = true
	res = obj.Validate(in, opts)
	require.True(t, res.OK())
	assert.Equal(t, in, res.Value)

	opts = rule.DefaultOptions()
	opts.StripUnknown = true
	res = obj.Validate(in, opts)
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"a": "x"}, res.Value)

	res = obj.Unknown(true).Validate(in)
	assert.True(t, res.OK())

	// an object without keys accepts anything
	assert.True(t, e.Object().Validate(in).OK())
	assert.Equal(t, []string{rule.CodeObjectBase}, codes(e.Object().Validate([]any{})))
}

func TestValidate_Arrays(t *testing.T) {
	assert.Equal(t, []string{rule.CodeArrayBase}, codes(e.Array().Validate("x")))
	assert.Equal(t, []string{rule.CodeArrayMin}, codes(e.Array().Min(2).Validate([]int{1})))
	assert.Equal(t, []string{rule.CodeArrayLength}, codes(e.Array().Length(1).Validate([]string{})))
	assert.Equal(t, []string{rule.CodeArrayUnique}, codes(e.Array().MustRule("unique").Validate([]any{1, 2.0, 2})))

	alts := e.Array(e.String(), e.Number())
	assert.True(t, alts.Validate([]any{"a", 1}).OK())
	assert.Equal(t, []string{rule.CodeArrayIncludes}, codes(alts.Validate([]any{true})))

	res := e.Array(e.Number()).Validate([]string{"1", "2"})
	require.True(t, res.OK())
	assert.Equal(t, []any{1.0, 2.0}, res.Value)
}

func TestValidate_Peers(t *testing.T) {
	obj := e.Object(rule.K("a", e.Any()), rule.K("b", e.Any()), rule.K("c", e.Any()))

	and := obj.MustRule("and", "a", "b")
	assert.True(t, and.Validate(map[string]any{}).OK())
	assert.True(t, and.Validate(map[string]any{"a": 1, "b": 2}).OK())
	res := and.Validate(map[string]any{"a": 1})
	require.True(t, res.Failed())
	assert.Equal(t, `"value" contains [a] without its required peers [b]`, res.Error.Issues[0].Message)

	assert.Equal(t, []string{rule.CodeObjectNand}, codes(obj.MustRule("nand", "a", "b").Validate(map[string]any{"a": 1, "b": 2})))
	assert.Equal(t, []string{rule.CodeObjectMissing}, codes(obj.MustRule("or", "a", "b").Validate(map[string]any{"c": 1})))
	assert.Equal(t, []string{rule.CodeObjectXor}, codes(obj.MustRule("xor", "a", "b").Validate(map[string]any{"a": 1, "b": 1})))
	assert.Equal(t, []string{rule.CodeObjectMissing}, codes(obj.MustRule("xor", "a", "b").Validate(map[string]any{})))
	assert.True(t, obj.MustRule("oxor", "a", "b").Validate(map[string]any{}).OK())

	with := obj.MustRule("with", "a", "b", "c")
	res = with.Validate(map[string]any{"a": 1, "b": 1})
	require.True(t, res.Failed())
	assert.Equal(t, `"a" missing required peer "c"`, res.Error.Issues[0].Message)
	assert.True(t, with.Validate(map[string]any{"b": 1}).OK())

	without := obj.MustRule("without", "a", []string{"b"})
	assert.Equal(t, []string{rule.CodeObjectWithout}, codes(without.Validate(map[string]any{"a": 1, "b": 1})))
}

func TestValidate_Custom(t *testing.T) {
	s := e.String().Custom("upper", func(v any) (any, error) {
		if v.(string) == "bad" {
			return nil, assert.AnError
		}
		return v.(string) + "!", nil
	})
	res := s.Validate("ok")
	require.True(t, res.OK())
	assert.Equal(t, "ok!", res.Value)

	res = s.Validate("bad")
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeCustom, res.Error.Issues[0].Code)
	assert.Equal(t, "upper", res.Error.Issues[0].Rule)
}

func TestValidate_ConcurrentUse(t *testing.T) {
	s := e.Object(rule.K("n", e.Number().Min(1).Required()))
	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(i int) {
			done <- s.Validate(map[string]any{"n": i}).OK()
		}(i)
	}
	ok := 0
	for i := 0; i < 8; i++ {
		if <-done {
			ok++
		}
	}
	assert.Equal(t, 7, ok)
}
