package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"loan-compare/internal/errors"

	"github.com/labstack/echo/v4"
)

// PanicRecovery turns a handler panic into a SYSTEM_001 response. When the
// response was already committed (an export mid-stream) only the log remains.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				panicErr := fmt.Errorf("panic: %v", r)
				resp := errors.NewErrorResponse(errors.SystemInternalError, traceIDOrUnknown(c))

				if c.Response().Committed {
					slog.ErrorContext(c.Request().Context(), "Panic after response was committed",
						"trace_id", resp.Error.TraceID,
						"error", panicErr.Error(),
						"path", c.Request().URL.Path,
						"stack_trace", string(debug.Stack()),
					)
					return
				}
				writeError(c, panicErr, resp, http.StatusInternalServerError, "stack_trace", string(debug.Stack()))
			}()

			return next(c)
		}
	}
}
