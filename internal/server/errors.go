package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/goby-channels/internal/handlers"
)

// setupErrorHandling logs unhandled errors with a stack trace and hides their
// details from the client. echo.HTTPErrors keep echo's default handling.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		slog.Error("Internal Server Error (Unhandled)",
			"error", err,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"stack_trace", string(debug.Stack()),
		)
		if err := c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Code:    "internal_error",
			Message: http.StatusText(http.StatusInternalServerError),
		}); err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
	}
}
