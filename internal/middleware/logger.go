package middleware

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger injects a request-scoped logger carrying the request ID. It must run
// after echo's RequestID middleware.
func Logger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			requestLogger := base.With("request_id", reqID, "path", c.Path())

			ctx := context.WithValue(c.Request().Context(), loggerKey, requestLogger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// FromContext returns the request logger, or the default logger outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
