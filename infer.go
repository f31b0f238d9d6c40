package classkema

import (
	"encoding/json"
	"reflect"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

var jsonNumberType = reflect.TypeFor[json.Number]()

// Infer returns the default fragment for a property of Go type t:
//
//	slices and arrays            array
//	bool                         boolean
//	time.Time                    date
//	func                         func
//	int, uint, float kinds       number
//	json.Number                  number
//	string kinds                 string
//
// Pointers are looked through. Structs, maps and interfaces are not
// guessed: they often stand for unions or nested classes and need an
// explicit declaration.
func Infer(e *rule.Engine, t reflect.Type) (rule.Schema, bool) {
	t = structs.Indirect(t)
	switch {
	case t == nil:
		return rule.Schema{}, false
	case structs.IsTime(t):
		return e.Date(), true
	case t == jsonNumberType:
		return e.Number(), true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return e.Array(), true
	case reflect.Bool:
		return e.Boolean(), true
	case reflect.Func:
		return e.Func(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return e.Number(), true
	case reflect.String:
		return e.String(), true
	}
	return rule.Schema{}, false
}
