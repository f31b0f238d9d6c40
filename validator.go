package classkema

import (
	"log/slog"
	"reflect"

	"github.com/reoring/classkema/internal/structs"
	"github.com/reoring/classkema/rule"
)

// Result is the outcome of a validation: the validated, possibly coerced,
// plain value and, on failure, the issues found.
type Result = rule.Result

// Validator validates values against compiled class schemas. Ordinary
// validation failures are reported in the Result; only precondition
// failures (a nil target, a class without a schema) are returned as errors.
type Validator struct {
	registry *Registry
	defaults rule.Options
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry selects the registry classes are compiled from.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r
		}
	}
}

// WithDefaults sets the options every call starts from.
func WithDefaults(opts rule.Options) Option {
	return func(v *Validator) { v.defaults = opts }
}

// WithLogger sets the logger used for validation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns a Validator over DefaultRegistry with rule.DefaultOptions,
// unless configured otherwise.
func New(opts ...Option) *Validator {
	v := &Validator{
		registry: DefaultRegistry,
		defaults: rule.DefaultOptions(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		if o != nil {
			o(v)
		}
	}
	return v
}

// Registry returns the registry the validator compiles from.
func (v *Validator) Registry() *Registry { return v.registry }

// Validate validates target against the schema of its own runtime class.
func (v *Validator) Validate(target any, opts ...CallOption) (Result, error) {
	if isNilTarget(target) {
		return Result{}, &InvalidTargetError{}
	}
	return v.ValidateAsClass(target, reflect.TypeOf(target), opts...)
}

// ValidateAsClass validates target against the schema of class. target may
// be a value of the class or a plain value (map[string]any, decoded JSON).
func (v *Validator) ValidateAsClass(target any, class reflect.Type, opts ...CallOption) (Result, error) {
	if isNilTarget(target) {
		return Result{}, &InvalidTargetError{}
	}
	schema, err := v.registry.Compile(class)
	if err != nil {
		return Result{}, err
	}
	return v.run(schema, class, structs.ToPlain(target), opts), nil
}

// ValidateArrayAsClass validates every element of targets against the
// schema of class.
func (v *Validator) ValidateArrayAsClass(targets any, class reflect.Type, opts ...CallOption) (Result, error) {
	if isNilTarget(targets) {
		return Result{}, &InvalidTargetError{Array: true}
	}
	schema, err := v.registry.Compile(class)
	if err != nil {
		return Result{}, err
	}
	return v.run(v.registry.engine.Array(schema), class, structs.ToPlain(targets), opts), nil
}

func (v *Validator) run(schema rule.Schema, class reflect.Type, value any, opts []CallOption) Result {
	res := schema.Validate(value, applyCallOptions(v.defaults, opts))
	if res.Failed() {
		v.logger.Debug("validation failed",
			slog.String("class", structs.Name(structs.Indirect(class))),
			slog.Int("issues", len(res.Error.Issues)),
		)
	}
	return res
}

var defaultValidator = New()

// Validate validates target with the default validator.
func Validate(target any, opts ...CallOption) (Result, error) {
	return defaultValidator.Validate(target, opts...)
}

// ValidateAsClass validates target as class with the default validator.
func ValidateAsClass(target any, class reflect.Type, opts ...CallOption) (Result, error) {
	return defaultValidator.ValidateAsClass(target, class, opts...)
}

// ValidateArrayAsClass validates targets as elements of class with the
// default validator.
func ValidateArrayAsClass(targets any, class reflect.Type, opts ...CallOption) (Result, error) {
	return defaultValidator.ValidateArrayAsClass(targets, class, opts...)
}

// ValidateAs validates target as class T. A nil v means the default
// validator.
func ValidateAs[T any](v *Validator, target any, opts ...CallOption) (Result, error) {
	if v == nil {
		v = defaultValidator
	}
	return v.ValidateAsClass(target, reflect.TypeFor[T](), opts...)
}

// ValidateArrayAs validates targets as elements of class T. A nil v means
// the default validator.
func ValidateArrayAs[T any](v *Validator, targets any, opts ...CallOption) (Result, error) {
	if v == nil {
		v = defaultValidator
	}
	return v.ValidateArrayAsClass(targets, reflect.TypeFor[T](), opts...)
}
