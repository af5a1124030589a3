package middleware

import (
	"net/http"
	"slices"
	"strings"

	h "discodoge/internal/delivery/http/helpers"
)

// AllowMethods rejects requests whose method is not listed with 405, an Allow header naming
// exactly the listed methods and a JSON error.
func AllowMethods(methods ...string) func(http.HandlerFunc) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(methods, r.Method) {
				w.Header().Set("Allow", allow)
				h.WriteJSONError(w, http.StatusMethodNotAllowed, h.ErrCodeMethodNotAllowed, "Method "+r.Method+" is not allowed")
				return
			}
			next(w, r)
		}
	}
}
