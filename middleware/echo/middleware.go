package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/classkema"
	"github.com/reoring/classkema/middleware"
)

// Body validates the request body as class T, stores the value in the
// request context on success, or responds with middleware.ErrorPayload.
func Body[T any](v *classkema.Validator, opts ...classkema.CallOption) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.Body = http.MaxBytesReader(c.Response(), req.Body, middleware.MaxBodyBytes)
			val, err := middleware.Decode[T](req, v, opts...)
			if err != nil {
				return c.JSON(middleware.Status(err), middleware.Payload(err))
			}
			c.SetRequest(req.WithContext(middleware.ContextWith(req.Context(), val)))
			return next(c)
		}
	}
}

// Get fetches the validated T from echo.Context.
func Get[T any](c echo.Context) (T, bool) {
	return middleware.FromContext[T](c.Request().Context())
}
