package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reoring/classkema"
	"github.com/reoring/classkema/middleware"
)

// Body validates the request body as class T and stores the value in the
// request context. Rejected requests are aborted with a
// middleware.ErrorPayload.
func Body[T any](v *classkema.Validator, opts ...classkema.CallOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, middleware.MaxBodyBytes)
		val, err := middleware.Decode[T](c.Request, v, opts...)
		if err != nil {
			c.AbortWithStatusJSON(middleware.Status(err), middleware.Payload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWith(c.Request.Context(), val))
		c.Next()
	}
}

// Get fetches the validated T from gin.Context.
func Get[T any](c *gin.Context) (T, bool) {
	return middleware.FromContext[T](c.Request.Context())
}
