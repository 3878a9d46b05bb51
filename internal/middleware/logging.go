package middleware

import (
	"time"

	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestErrorKey = "request_error"
)

// SetError attaches an unexpected error to the request so RequestLogger can
// report it; the client only sees a generic message.
func SetError(c *drift.Context, err error) {
	c.Set(requestErrorKey, err)
}

// RequestLogger tags the request context with a request id and logs the
// request once the handler chain returns.
func RequestLogger(log *logger.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response.Header().Set(RequestIDHeader, requestID)

		ctx := log.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		ctx = log.WithFields(ctx, map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if userID := GetUserID(c); userID != uuid.Nil {
			ctx = log.WithUserID(ctx, userID.String())
		}
		if v, ok := c.Get(requestErrorKey); ok {
			if err, ok := v.(error); ok {
				log.Error(ctx, "request failed", err)
				return
			}
		}
		log.Info(ctx, "request completed")
	}
}
