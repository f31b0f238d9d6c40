package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/classkema"
	"github.com/reoring/classkema/middleware"
	"github.com/reoring/classkema/rule"
)

type signup struct {
	User string `json:"user" yaml:"user"`
	Age  int    `json:"age" yaml:"age"`
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	reg := classkema.NewRegistry()
	require.NoError(t, reg.Decorate(reflect.TypeFor[signup](),
		classkema.Prop("user", classkema.String().Min(3).Required()),
		classkema.Prop("age", classkema.Number().Integer().Min(18)),
	))
	v := classkema.New(classkema.WithRegistry(reg))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, found := middleware.FromContext[signup](r.Context())
		if !found {
			http.Error(w, "missing", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(s.User))
	})
	return middleware.Body[signup](v)(ok)
}

func serve(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBody_JSON(t *testing.T) {
	h := newHandler(t)

	rec := serve(h, "application/json; charset=utf-8", `{"user":"alice","age":30}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	rec = serve(h, "", `{"user":"bob","age":"21"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "missing content type means JSON; numeric strings are converted")
}

func TestBody_YAML(t *testing.T) {
	h := newHandler(t)
	rec := serve(h, "application/yaml", "user: carol\nage: 40\n")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "carol", rec.Body.String())
}

func TestBody_Rejections(t *testing.T) {
	h := newHandler(t)

	rec := serve(h, "text/plain", "user=alice")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = serve(h, "application/json", `{"user":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, "application/json", `{"user":"al","age":12}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload middleware.ErrorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Issues, 1)
	assert.Equal(t, rule.CodeStringMin, payload.Issues[0].Code)
	assert.Equal(t, "/user", payload.Issues[0].Path)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnsupportedMediaType, middleware.Status(&middleware.UnsupportedMediaTypeError{ContentType: "x/y"}))
	assert.Equal(t, http.StatusInternalServerError, middleware.Status(&classkema.ConstraintDefinitionError{Reason: "x"}))
	assert.Equal(t, http.StatusBadRequest, middleware.Status(&rule.ValidationError{}))
}
