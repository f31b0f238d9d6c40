package classkema

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/classkema/internal/structs"
)

// Decode converts the validated value of res into a T. It returns the
// validation error when res failed.
func Decode[T any](res Result) (T, error) {
	var zero T
	if err := res.Err(); err != nil {
		return zero, err
	}
	rv, err := structs.Decode(res.Value, reflect.TypeFor[T]())
	if err != nil {
		return zero, fmt.Errorf("classkema: %w", err)
	}
	return rv.Interface().(T), nil
}

// ValidateJSON parses data and validates it as class T. Numbers are kept as
// json.Number until the schema coerces them. A nil v means the default
// validator.
func ValidateJSON[T any](v *Validator, data []byte, opts ...CallOption) (Result, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("classkema: parse json: %w", err)
	}
	return ValidateAs[T](v, doc, opts...)
}

// ValidateYAML parses data and validates it as class T. A nil v means the
// default validator.
func ValidateYAML[T any](v *Validator, data []byte, opts ...CallOption) (Result, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("classkema: parse yaml: %w", err)
	}
	return ValidateAs[T](v, doc, opts...)
}
