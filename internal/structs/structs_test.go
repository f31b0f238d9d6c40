package structs

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type base struct {
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

type Address struct {
	City string `json:"city"`
}

type user struct {
	base
	Name     string            `json:"name"`
	Alias    string            `json:",omitempty"`
	Secret   string            `json:"-"`
	private  string            //nolint:unused
	Home     *Address          `json:"home"`
	Tags     []string          `json:"tags"`
	Meta     map[string]string `json:"meta"`
	Born     time.Time         `json:"born"`
	Callback func()            `json:"callback"`
	ID       int               `json:"id"` // shadows base.ID
}

func TestFields(t *testing.T) {
	fields := Fields(reflect.TypeFor[user]())
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"note", "name", "Alias", "home", "tags", "meta", "born", "callback", "id"}, keys, spew.Sdump(fields))

	id, ok := Lookup(reflect.TypeFor[*user](), "id")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int](), id.Type)
	assert.False(t, id.Promoted())

	note, ok := Lookup(reflect.TypeFor[user](), "note")
	require.True(t, ok)
	assert.True(t, note.Promoted())
	assert.True(t, note.OmitEmpty)

	_, ok = Lookup(reflect.TypeFor[user](), "Secret")
	assert.False(t, ok)
	assert.Nil(t, Fields(reflect.TypeFor[int]()))
}

type left struct {
	Code string `json:"code"`
	Size int
}

type right struct {
	Code string `json:"code"`
	Size int    `json:"Size"`
}

type tie struct {
	left
	right
}

func TestFields_ConflictsFollowEncodingJSON(t *testing.T) {
	fields := Fields(reflect.TypeFor[tie]())
	require.Len(t, fields, 1, spew.Sdump(fields))
	assert.Equal(t, "Size", fields[0].Key)
	assert.Equal(t, []int{1, 1}, fields[0].Index, "the json-named field wins the tie")

	_, ok := Lookup(reflect.TypeFor[tie](), "code")
	assert.False(t, ok, "equally named fields at the same depth drop the key")

	v := tie{left{Code: "l", Size: 1}, right{Code: "r", Size: 2}}
	assert.Equal(t, map[string]any{"Size": 2}, ToPlain(v))

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var std map[string]any
	require.NoError(t, json.Unmarshal(raw, &std))
	assert.Equal(t, []string{"Size"}, slices.Sorted(maps.Keys(std)))
}

func TestToPlain(t *testing.T) {
	born := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	u := &user{
		base: base{ID: "ignored"},
		Name: "ann",
		Tags: []string{"a"},
		Born: born,
		ID:   7,
	}
	got := ToPlain(u)
	want := map[string]any{
		"id":   7,
		"name": "ann",
		"tags": []any{"a"},
		"born": born,
	}
	assert.Equal(t, want, got, spew.Sdump(got))

	assert.Nil(t, ToPlain((*user)(nil)))
	assert.Equal(t, []any{1, 2}, ToPlain([2]int{1, 2}))
	assert.Equal(t, map[string]any{"k": nil}, ToPlain(map[string]*Address{"k": nil}))
}

func TestDecode(t *testing.T) {
	v, err := Decode(map[string]any{"city": "Kyoto"}, reflect.TypeFor[*Address]())
	require.NoError(t, err)
	assert.Equal(t, &Address{City: "Kyoto"}, v.Interface())

	_, err = Decode(map[string]any{"city": 1}, reflect.TypeFor[Address]())
	require.Error(t, err)
}

func TestParseTag(t *testing.T) {
	items, err := ParseTag(`string, min=3,required,pattern=^a\,b$,valid=x\|y|z`)
	require.NoError(t, err)
	assert.Equal(t, []TagItem{
		{Name: "string"},
		{Name: "min", Args: []string{"3"}},
		{Name: "required"},
		{Name: "pattern", Args: []string{"^a,b$"}},
		{Name: "valid", Args: []string{"x|y", "z"}},
	}, items)

	items, err = ParseTag(`pattern=^\d+$`)
	require.NoError(t, err)
	assert.Equal(t, []string{`^\d+$`}, items[0].Args)

	_, err = ParseTag("=3")
	require.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "Address", Name(reflect.TypeFor[*Address]()))
	assert.Equal(t, "struct { A int }", Name(reflect.TypeOf(struct{ A int }{})))
}
