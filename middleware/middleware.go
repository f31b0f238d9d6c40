package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/goccy/go-json"

	"github.com/reoring/classkema"
	"github.com/reoring/classkema/rule"
)

// MaxBodyBytes caps request bodies read by Body.
const MaxBodyBytes = 1 << 20

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	yamlMediaTypes = []contenttype.MediaType{
		contenttype.NewMediaType("application/yaml"),
		contenttype.NewMediaType("application/x-yaml"),
		contenttype.NewMediaType("text/yaml"),
	}
)

// UnsupportedMediaTypeError reports a request body that is neither JSON nor
// YAML.
type UnsupportedMediaTypeError struct {
	ContentType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q; use application/json or application/yaml", e.ContentType)
}

// ctxKeyValue is a typed context key; the type parameter keeps keys for
// different T apart.
type ctxKeyValue[T any] struct{}

// ContextWith attaches a validated T to ctx.
func ContextWith[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyValue[T]{}, v)
}

// FromContext retrieves the validated T stored by Body.
func FromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyValue[T]{}).(T)
	return v, ok
}

// Decode reads the body of r as JSON or YAML, chosen by Content-Type (JSON
// when absent), validates it as class T and returns the validated value.
// Validation failures are returned as *rule.ValidationError.
func Decode[T any](r *http.Request, v *classkema.Validator, opts ...classkema.CallOption) (T, error) {
	var zero T
	yaml, err := isYAML(r)
	if err != nil {
		return zero, err
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return zero, fmt.Errorf("read body: %w", err)
	}
	var res classkema.Result
	if yaml {
		res, err = classkema.ValidateYAML[T](v, data, opts...)
	} else {
		res, err = classkema.ValidateJSON[T](v, data, opts...)
	}
	if err != nil {
		return zero, err
	}
	return classkema.Decode[T](res)
}

func isYAML(r *http.Request) (bool, error) {
	if r.Header.Get("Content-Type") == "" {
		return false, nil
	}
	mt, err := contenttype.GetMediaType(r)
	if err != nil {
		return false, &UnsupportedMediaTypeError{ContentType: r.Header.Get("Content-Type")}
	}
	if mt.Matches(jsonMediaType) {
		return false, nil
	}
	for _, y := range yamlMediaTypes {
		if mt.Matches(y) {
			return true, nil
		}
	}
	return false, &UnsupportedMediaTypeError{ContentType: r.Header.Get("Content-Type")}
}

// Body returns middleware that decodes and validates the request body as
// class T, stores it in the request context (see FromContext) and calls
// next. Rejected requests get an ErrorPayload: 415 for unsupported media
// types, 400 for malformed or invalid bodies. A nil v means the default
// validator.
func Body[T any](v *classkema.Validator, opts ...classkema.CallOption) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
			val, err := Decode[T](r, v, opts...)
			if err != nil {
				slog.Default().DebugContext(r.Context(), "request body rejected",
					slog.String("path", r.URL.Path),
					slog.Int("status", Status(err)),
					slog.String("err", err.Error()),
				)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), val)))
		})
	}
}

// ErrorPayload shapes a rejected body for JSON responses.
type ErrorPayload struct {
	Error  string      `json:"error"`
	Issues rule.Issues `json:"issues,omitempty"`
}

// Payload builds the response body for err.
func Payload(err error) ErrorPayload {
	var verr *rule.ValidationError
	if errors.As(err, &verr) {
		return ErrorPayload{Error: verr.Error(), Issues: verr.Issues}
	}
	return ErrorPayload{Error: err.Error()}
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	var (
		media *UnsupportedMediaTypeError
		def   *classkema.ConstraintDefinitionError
		big   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &media):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &big):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &def):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// WriteError writes err as a JSON ErrorPayload with the status from Status.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(Payload(err))
}
