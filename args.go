package classkema

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/reoring/classkema/internal/structs"
)

var errorType = reflect.TypeFor[error]()

// ValidateArgs wraps fn so that every argument declared as a schema-bearing
// class (a decorated or tagged struct, or a SchemaProvider, by value or
// pointer) is validated before fn runs. Which parameters are checked is
// decided once, here.
//
// Every failing argument is collected into a *MultipleValidationError. When
// fn's last result is an error, the wrapper returns it there with zero
// values for the other results; otherwise the wrapper panics with it. On
// success, fn receives the validated values decoded back into their
// parameter types, so coerced and defaulted fields reach the body. Nil
// arguments are passed through unchecked. A nil v means the default
// validator.
func ValidateArgs[F any](v *Validator, fn F, opts ...CallOption) F {
	if v == nil {
		v = defaultValidator
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		panic(fmt.Sprintf("classkema: ValidateArgs needs a non-nil function, got %T", fn))
	}
	ft := rv.Type()

	var checked []int
	for i := 0; i < ft.NumIn(); i++ {
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			continue
		}
		if v.registry.IsSchemaBearing(ft.In(i)) {
			checked = append(checked, i)
		}
	}
	if len(checked) == 0 {
		return fn
	}
	errIndex := -1
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		errIndex = n - 1
	}

	wrapped := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		var failures []ArgumentFailure
		for _, i := range checked {
			arg := args[i]
			if isNilTarget(arg.Interface()) {
				continue
			}
			res, err := v.ValidateAsClass(arg.Interface(), ft.In(i), opts...)
			if err == nil && res.Failed() {
				err = res.Error
			}
			if err != nil {
				failures = append(failures, ArgumentFailure{Index: i, Type: ft.In(i), Err: err})
				continue
			}
			if out, err := structs.Overlay(res.Value, arg); err == nil {
				args[i] = out
			} else {
				v.logger.Debug("keeping original argument", slog.Int("index", i), slog.Any("error", err))
			}
		}
		if len(failures) > 0 {
			merr := &MultipleValidationError{Failures: failures}
			if errIndex < 0 {
				panic(merr)
			}
			out := make([]reflect.Value, ft.NumOut())
			for j := range out {
				out[j] = reflect.Zero(ft.Out(j))
			}
			e := reflect.New(errorType).Elem()
			e.Set(reflect.ValueOf(merr))
			out[errIndex] = e
			return out
		}
		if ft.IsVariadic() {
			return rv.CallSlice(args)
		}
		return rv.Call(args)
	})
	return wrapped.Interface().(F)
}
