package classkema_test

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/classkema"
	"github.com/reoring/classkema/rule"
)

type Address struct {
	City string `json:"city"`
}

type Person struct {
	Name string    `json:"name"`
	Home *Address  `json:"home,omitempty"`
	Past []Address `json:"past,omitempty"`
}

func declarePerson(t *testing.T, reg *classkema.Registry) {
	t.Helper()
	// Person is declared first: nested classes resolve on first validation.
	require.NoError(t, reg.Decorate(reflect.TypeFor[Person](),
		classkema.Prop("name", classkema.String()),
		classkema.Prop("home", classkema.Nested().Required()),
		classkema.Prop("past", classkema.NestedArray().Max(2)),
	))
	require.NoError(t, reg.Decorate(reflect.TypeFor[Address](),
		classkema.Prop("city", classkema.String().Min(2)),
	))
}

func TestNested_PathsAndPresence(t *testing.T) {
	reg, v := newValidator()
	declarePerson(t, reg)

	res, err := v.Validate(Person{Name: "x", Home: &Address{City: "a"}})
	require.NoError(t, err)
	require.Equal(t, []string{rule.CodeStringMin}, issueCodes(res))
	assert.Equal(t, "/home/city", res.Error.Issues[0].Path)
	assert.Equal(t, `"home.city" length must be at least 2 characters long`, res.Error.Issues[0].Message)

	res, err = v.Validate(Person{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{rule.CodeRequired}, issueCodes(res))
	assert.Equal(t, "/home", res.Error.Issues[0].Path)

	res, err = v.Validate(Person{
		Name: "x",
		Home: &Address{City: "Kyoto"},
		Past: []Address{{City: "Osaka"}, {City: "b"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{rule.CodeStringMin}, issueCodes(res))
	assert.Equal(t, "/past/1/city", res.Error.Issues[0].Path)

	res, err = v.Validate(Person{
		Name: "x",
		Home: &Address{City: "Kyoto"},
		Past: []Address{{City: "Osaka"}, {City: "Nara"}, {City: "Kobe"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{rule.CodeArrayMax}, issueCodes(res))
}

type TreeNode struct {
	Value    string     `json:"value"`
	Children []TreeNode `json:"children,omitempty"`
	Parent   *TreeNode  `json:"parent,omitempty"`
}

func TestNested_Recursive(t *testing.T) {
	reg, v := newValidator()
	require.NoError(t, reg.Decorate(reflect.TypeFor[TreeNode](),
		classkema.Prop("value", classkema.String().Min(2)),
		classkema.Prop("children", classkema.NestedArray()),
		classkema.Prop("parent", classkema.Nested()),
	))

	tree := TreeNode{Value: "root", Children: []TreeNode{
		{Value: "ok", Children: []TreeNode{{Value: "x"}}},
	}}
	res, err := v.Validate(tree)
	require.NoError(t, err)
	require.Equal(t, []string{rule.CodeStringMin}, issueCodes(res))
	assert.Equal(t, "/children/0/children/0/value", res.Error.Issues[0].Path)

	res, err = v.Validate(TreeNode{Value: "leaf", Parent: &TreeNode{Value: "up"}})
	require.NoError(t, err)
	assert.True(t, res.OK(), "%v", res.Err())
}

type Orphan struct {
	Ref *Unknowable `json:"ref,omitempty"`
}

type Unknowable struct {
	X int `json:"x"`
}

func TestNested_UnresolvableClassIsIssue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg, v := newValidator(classkema.WithRegistryLogger(logger))
	require.NoError(t, reg.Decorate(reflect.TypeFor[Orphan](), classkema.Prop("ref", classkema.Nested())))

	res, err := v.Validate(Orphan{Ref: &Unknowable{X: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{rule.CodeSchemaUnavailable}, issueCodes(res))
	assert.Contains(t, buf.String(), "nested class schema unavailable")
	assert.Contains(t, buf.String(), "class=Unknowable")

	// declaring the nested class afterwards makes it available
	require.NoError(t, reg.Decorate(reflect.TypeFor[Unknowable](), classkema.Prop("x", classkema.Number().Max(0))))
	res, err = v.Validate(Orphan{Ref: &Unknowable{X: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{rule.CodeNumberMax}, issueCodes(res))
}

func TestUnknownKeys(t *testing.T) {
	reg, v := newValidator()
	require.NoError(t, reg.Decorate(reflect.TypeFor[Part](), classkema.Prop("name", classkema.String())))
	class := reflect.TypeFor[Part]()
	in := map[string]any{"name": "bolt", "size": 3}

	res, err := v.ValidateAsClass(in, class)
	require.NoError(t, err)
	assert.Equal(t, []string{rule.CodeObjectUnknown}, issueCodes(res))
	assert.Equal(t, "/size", res.Error.Issues[0].Path)

	res, err = v.ValidateAsClass(in, class, classkema.WithAllowUnknown(true))
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, 3, res.Value.(map[string]any)["size"])

	res, err = v.ValidateAsClass(in, class, classkema.WithStripUnknown(true))
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.NotContains(t, res.Value.(map[string]any), "size")
}

type Open struct {
	ID string `json:"id"`
}

type OpenChild struct {
	Open
	Extra string `json:"extra,omitempty"`
}

func TestUnknownPolicyIsInherited(t *testing.T) {
	reg, v := newValidator()
	require.NoError(t, reg.Decorate(reflect.TypeFor[Open](), classkema.Unknown(true), classkema.Prop("id", classkema.String())))
	require.NoError(t, reg.Decorate(reflect.TypeFor[OpenChild](), classkema.Prop("extra", classkema.String())))

	res, err := v.ValidateAsClass(map[string]any{"id": "1", "other": true}, reflect.TypeFor[OpenChild]())
	require.NoError(t, err)
	assert.True(t, res.OK(), "%v", res.Err())

	// an explicit call option does not override a class policy
	res, err = v.ValidateAsClass(map[string]any{"id": "1", "other": true}, reflect.TypeFor[Open](), classkema.WithAllowUnknown(false))
	require.NoError(t, err)
	assert.True(t, res.OK())
}
