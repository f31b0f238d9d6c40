package rule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/classkema/rule"
)

func TestSchema_Immutable(t *testing.T) {
	e := rule.NewEngine()
	base := e.String()
	withMin := base.Min(3)
	_ = withMin.Max(5)

	assert.Empty(t, base.Rules())
	assert.Equal(t, []string{"min"}, withMin.Rules())

	req := base.Required()
	assert.Equal(t, rule.PresenceDefault, base.Presence())
	assert.Equal(t, rule.PresenceRequired, req.Presence())

	// appending to a shared prefix must not leak between branches
	a := withMin.Max(10)
	b := withMin.Length(4)
	assert.Equal(t, []string{"min", "max"}, a.Rules())
	assert.Equal(t, []string{"min", "length"}, b.Rules())
}

func TestSchema_RuleUnsupported(t *testing.T) {
	e := rule.NewEngine(rule.WithoutRules(rule.KindString, "email"))
	_, err := e.String().Rule("email")
	var unsupported *rule.UnsupportedRuleError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, rule.KindString, unsupported.Kind)
	assert.Equal(t, "email", unsupported.Rule)

	assert.True(t, rule.Default.Supports(rule.KindString, "email"))
	assert.False(t, e.Supports(rule.KindString, "email"))
	assert.Panics(t, func() { e.String().Email() })
}

func TestSchema_RuleBadArguments(t *testing.T) {
	_, err := rule.Default.String().Rule("min", "abc")
	require.Error(t, err)
	var unsupported *rule.UnsupportedRuleError
	assert.False(t, errors.As(err, &unsupported))

	_, err = rule.Default.String().Rule("pattern", "(")
	require.Error(t, err)

	_, err = rule.Default.Number().Rule("multiple", 0)
	require.Error(t, err)

	_, err = rule.Default.Object().Rule("and")
	require.Error(t, err)
}

func TestEngine_Extend(t *testing.T) {
	e := rule.NewEngine()
	e.Extend(rule.KindString, "even", func(args ...any) (rule.Check, error) {
		return func(v any, _ rule.Options) (any, *rule.Failure) {
			if len(v.(string))%2 == 0 {
				return v, nil
			}
			return v, rule.Fail("string.even")
		}, nil
	})

	s, err := e.String().Rule("even")
	require.NoError(t, err)
	assert.True(t, s.Validate("ab").OK())
	res := s.Validate("abc")
	require.True(t, res.Failed())
	assert.Equal(t, "string.even", res.Error.Issues[0].Code)
	assert.Equal(t, `"value" failed string.even`, res.Error.Issues[0].Message)
}

func TestSchema_Lazy(t *testing.T) {
	calls := 0
	lazy := rule.Default.Lazy(rule.KindObject, func() (rule.Schema, error) {
		calls++
		return rule.Default.Object(rule.K("name", rule.Default.String().Required())), nil
	})
	lazy = lazy.Required().MustRule("or", "name")

	assert.Equal(t, rule.KindLazy, lazy.Kind())
	assert.Equal(t, rule.KindObject, lazy.TargetKind())
	assert.Equal(t, 0, calls)

	assert.True(t, lazy.Validate(map[string]any{"name": "x"}).OK())
	res := lazy.Validate(map[string]any{})
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeRequired, res.Error.Issues[0].Code)
	assert.Equal(t, 1, calls)

	_, err := rule.Default.Lazy(rule.KindObject, nil).Rule("min", 1)
	var unsupported *rule.UnsupportedRuleError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, rule.KindObject, unsupported.Kind)
}

func TestSchema_LazyResolveError(t *testing.T) {
	lazy := rule.Default.Lazy(rule.KindObject, func() (rule.Schema, error) {
		return rule.Schema{}, errors.New("boom")
	})
	res := lazy.Validate(map[string]any{})
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeSchemaUnavailable, res.Error.Issues[0].Code)
	assert.Contains(t, res.Error.Error(), "boom")
}

func TestSchema_Keys(t *testing.T) {
	s := rule.Default.Object(
		rule.K("a", rule.Default.String()),
		rule.K("b", rule.Default.Number()),
	).Keys(rule.K("a", rule.Default.Boolean()))

	assert.Equal(t, []string{"a", "b"}, s.KeyNames())
	a, ok := s.Key("a")
	require.True(t, ok)
	assert.Equal(t, rule.KindBoolean, a.Kind())

	assert.Panics(t, func() { rule.Default.String().Keys() })
	assert.Panics(t, func() { rule.Default.Number().Items() })
}

func TestParsePresence(t *testing.T) {
	p, err := rule.ParsePresence("required")
	require.NoError(t, err)
	assert.Equal(t, rule.PresenceRequired, p)
	assert.Equal(t, "required", p.String())

	_, err = rule.ParsePresence("sometimes")
	require.Error(t, err)
}

func TestSchema_DateRuleAcceptsNow(t *testing.T) {
	s := rule.Default.Date().MustRule("less", "now")
	assert.True(t, s.Validate(time.Now().Add(-time.Hour)).OK())
	assert.True(t, s.Validate(time.Now().Add(time.Hour)).Failed())
}

func TestDefaultShortcuts(t *testing.T) {
	s := rule.Object(
		rule.K("name", rule.String().Min(2)),
		rule.K("tags", rule.Array(rule.String())),
		rule.K("age", rule.Number()),
	)
	assert.Same(t, rule.Default, s.Engine())
	assert.Equal(t, rule.KindBoolean, rule.Boolean().Kind())
	assert.Equal(t, rule.KindDate, rule.Date().Kind())
	assert.Equal(t, rule.KindFunc, rule.Func().Kind())
	assert.Equal(t, rule.KindAny, rule.Any().Kind())

	res := s.Validate(map[string]any{"name": "x", "tags": []any{"a"}, "age": 3})
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeStringMin, res.Error.Issues[0].Code)
}

func TestLazy_RetriesFailedResolution(t *testing.T) {
	calls := 0
	ready := false
	s := rule.Lazy(rule.KindString, func() (rule.Schema, error) {
		calls++
		if !ready {
			return rule.Schema{}, errors.New("not declared yet")
		}
		return rule.String().Max(3), nil
	})

	res := s.Validate("abcd")
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeSchemaUnavailable, res.Error.Issues[0].Code)

	ready = true
	res = s.Validate("abcd")
	require.True(t, res.Failed())
	assert.Equal(t, rule.CodeStringMax, res.Error.Issues[0].Code)

	res = s.Validate("abc")
	assert.True(t, res.OK())
	assert.Equal(t, 2, calls, "a successful resolution is kept")
}
