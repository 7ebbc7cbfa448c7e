package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/sitesapi/internal/domain"
	"github.com/simp-lee/sitesapi/internal/pkg"
)

// Recovery returns a gin middleware that recovers from panics, logs the panic
// value and stack trace, and answers with the standard JSON error body:
//
//	{"error": "Internal server error"}
//
// Nothing about the panic reaches the client. If the handler had already
// started writing, the status cannot change and only the log is written.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				pkg.Abort(c, http.StatusInternalServerError, domain.MsgInternal)
			}
		}()
		c.Next()
	}
}
