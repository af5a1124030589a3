package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	h "discodoge/internal/delivery/http/helpers"
	"discodoge/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// SessionLoader builds the per-request session from the request cookies.
type SessionLoader interface {
	Load(w http.ResponseWriter, r *http.Request) *domain.Session
}

// PrincipalResolver resolves and drops the principal behind a session.
type PrincipalResolver interface {
	CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error)
	Logout(ctx context.Context, w http.ResponseWriter, sess *domain.Session)
}

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Session loads the session for every request and stores it in the request context.
// Handlers read it with domain.SessionFromContext.
func Session(loader SessionLoader, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := loader.Load(w, r)
		next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), sess)))
	})
}

// RequireAuth returns a wrapper that resolves the session principal and sets the user ID in
// the request context. Anonymous or rejected sessions get a 401 JSON error.
func RequireAuth(resolver PrincipalResolver, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, err := resolve(w, r, resolver)
			if err != nil && !errors.Is(err, domain.ErrUnauthorized) {
				logger.ErrorContext(r.Context(), "resolve principal failed", "path", r.URL.Path, "err", err)
				h.WriteDomainError(w, err)
				return
			}
			if user == nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), user.ID)))
		}
	}
}

// RequireLogin is RequireAuth for pages: anonymous visitors are redirected to loginPath
// with the original path in the "next" query parameter.
func RequireLogin(resolver PrincipalResolver, logger *slog.Logger, loginPath string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, err := resolve(w, r, resolver)
			if err != nil && !errors.Is(err, domain.ErrUnauthorized) {
				logger.ErrorContext(r.Context(), "resolve principal failed", "path", r.URL.Path, "err", err)
				http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
				return
			}
			if user == nil {
				target := loginPath + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), user.ID)))
		}
	}
}

// resolve returns the principal of the request session. A credential the content API rejects
// is logged out so its cookie is dropped.
func resolve(w http.ResponseWriter, r *http.Request, resolver PrincipalResolver) (*domain.User, error) {
	sess, ok := domain.SessionFromContext(r.Context())
	if !ok {
		return nil, nil
	}
	user, err := resolver.CurrentUser(r.Context(), sess)
	if errors.Is(err, domain.ErrUnauthorized) {
		resolver.Logout(r.Context(), w, sess)
	}
	return user, err
}
