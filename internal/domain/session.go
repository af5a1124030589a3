package domain

import "context"

// Session is the per-request authentication state.
// Token present means User should be resolvable, though User may be nil until resolved.
type Session struct {
	User      *User
	Token     string
	LastError string
}

// Authenticated reports whether the session carries a credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

type contextKey string

const (
	sessionKey    contextKey = "session"
	credentialKey contextKey = "credential"
)

// WithSession returns a context carrying s and its credential.
func WithSession(ctx context.Context, s *Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	if s != nil && s.Token != "" {
		ctx = WithCredential(ctx, s.Token)
	}
	return ctx
}

// SessionFromContext returns the session stored by WithSession, if present.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// WithCredential returns a context carrying a bearer token for upstream calls.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey, token)
}

// CredentialFromContext returns the bearer token for upstream calls, if any.
func CredentialFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey).(string)
	return token, ok && token != ""
}
