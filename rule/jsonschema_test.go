package rule_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/classkema/rule"
)

func TestJSONSchema_Object(t *testing.T) {
	s := e.Object(
		rule.K("name", e.String().Min(1).Max(20).Required().Description("display name")),
		rule.K("age", e.Number().MustRule("integer").Min(0)),
		rule.K("email", e.String().Email()),
		rule.K("tags", e.Array(e.String()).MustRule("unique")),
	).MustRule("with", "email", "name")

	js := s.JSONSchema()
	assert.Equal(t, "object", js.Type)
	assert.Equal(t, []string{"name"}, js.Required)
	require.NotNil(t, js.Properties)
	assert.Equal(t, 4, js.Properties.Len())

	name, _ := js.Properties.Get("name")
	assert.Equal(t, "display name", name.Description)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, uint64(1), *name.MinLength)

	age, _ := js.Properties.Get("age")
	assert.Equal(t, "integer", age.Type)
	assert.Equal(t, "0", string(age.Minimum))

	email, _ := js.Properties.Get("email")
	assert.Equal(t, "email", email.Format)

	tags, _ := js.Properties.Get("tags")
	assert.True(t, tags.UniqueItems)
	assert.Equal(t, "string", tags.Items.Type)

	assert.Equal(t, []string{"name"}, js.DependentRequired["email"])

	raw, err := json.Marshal(js)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"additionalProperties":false`)
	// property order follows declaration order
	assert.Regexp(t, `"name".*"age".*"email".*"tags"`, string(raw))
}

func TestJSONSchema_RecursiveLazy(t *testing.T) {
	var node rule.Schema
	node = e.Object(
		rule.K("value", e.Number()),
		rule.K("next", e.Lazy(rule.KindObject, func() (rule.Schema, error) { return node, nil })),
	)
	js := node.JSONSchema()
	next, ok := js.Properties.Get("next")
	require.True(t, ok)
	inner, ok := next.Properties.Get("next")
	require.True(t, ok)
	assert.Equal(t, "recursive reference", inner.Comments)

	// recursion also validates
	res := node.Validate(map[string]any{"value": 1, "next": map[string]any{"value": "x"}})
	require.True(t, res.Failed())
	assert.Equal(t, "/next/value", res.Error.Issues[0].Path)
}
