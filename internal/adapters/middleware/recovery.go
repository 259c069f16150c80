package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// RecoveryMiddleware is the top error boundary: it recovers panics, logs them
// with full detail, and surfaces a generic 500 without leaking a stack trace
// to the caller.
func RecoveryMiddleware(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "Panic recovered in HTTP handler",
						"path", r.URL.Path,
						"panic_info", fmt.Sprintf("%v", rec),
						"stacktrace", string(debug.Stack()),
					)
					domain.NewErrorResponse(domain.ErrInternal, fmt.Sprintf("%v", rec)).WriteJSON(w, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
