package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	h "discodoge/internal/delivery/http/helpers"
)

// Recover turns a panic in next into a 500 response and an error log.
func Recover(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "panic serving request",
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
		}()
		next.ServeHTTP(w, r)
	})
}
