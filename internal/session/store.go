// Package session keeps the bearer credential issued by the content API in an HTTP-only
// cookie and resolves the principal it belongs to.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"discodoge/internal/cache"
	"discodoge/internal/domain"
)

// CookieName is the cookie holding the bearer credential.
const CookieName = "token"

// DefaultMaxAge applies when the credential carries no expiry.
const DefaultMaxAge = 7 * 24 * time.Hour

const userCachePrefix = "session:user:"

// Options configures a Store.
type Options struct {
	// Secure marks the cookie Secure (production).
	Secure bool
	// CacheTTL bounds how long a resolved principal is cached across requests.
	CacheTTL time.Duration
}

// Store implements login, logout and principal resolution on an explicit *domain.Session.
type Store struct {
	logger *slog.Logger
	auth   domain.Authenticator
	tokens domain.TokenInspector
	cache  *cache.Client
	opts   Options
	now    func() time.Time
}

// NewStore returns a Store. cache may be nil.
func NewStore(logger *slog.Logger, auth domain.Authenticator, tokens domain.TokenInspector, c *cache.Client, opts Options) *Store {
	return &Store{
		logger: logger,
		auth:   auth,
		tokens: tokens,
		cache:  c,
		opts:   opts,
		now:    time.Now,
	}
}

// Load builds the session for r from its cookie. An expired credential is dropped and its
// cookie invalidated.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *domain.Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return &domain.Session{}
	}
	if exp, ok := s.tokens.ExpiresAt(c.Value); ok && !exp.After(s.now()) {
		s.clearCookie(w)
		return &domain.Session{}
	}
	return &domain.Session{Token: c.Value}
}

// Login makes one attempt against the content API. On success the credential is stored in
// the cookie and sess, and LastError is cleared. On failure only LastError changes.
func (s *Store) Login(ctx context.Context, w http.ResponseWriter, sess *domain.Session, identifier, secret string) (*domain.User, error) {
	res, err := s.auth.Login(ctx, identifier, secret)
	if err != nil {
		return nil, s.fail(ctx, sess, "login", err)
	}
	s.establish(ctx, w, sess, res)
	s.logger.InfoContext(ctx, "user logged in", "user_id", res.User.ID)
	return res.User, nil
}

// Register creates an account and logs it in, with the same semantics as Login.
func (s *Store) Register(ctx context.Context, w http.ResponseWriter, sess *domain.Session, username, email, secret string) (*domain.User, error) {
	res, err := s.auth.Register(ctx, username, email, secret)
	if err != nil {
		return nil, s.fail(ctx, sess, "register", err)
	}
	s.establish(ctx, w, sess, res)
	s.logger.InfoContext(ctx, "user registered", "user_id", res.User.ID)
	return res.User, nil
}

// Logout clears sess and invalidates the cookie.
func (s *Store) Logout(ctx context.Context, w http.ResponseWriter, sess *domain.Session) {
	if sess.Token != "" {
		s.cache.Delete(ctx, userCacheKey(sess.Token))
	}
	sess.Token = ""
	sess.User = nil
	s.clearCookie(w)
}

// CurrentUser returns the principal of sess, resolving it from the credential on first use.
// It returns nil, nil for an anonymous session. A credential the content API rejects empties
// sess and yields domain.ErrUnauthorized; the caller should Logout to drop the cookie.
func (s *Store) CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if sess.User != nil {
		return sess.User, nil
	}
	if !sess.Authenticated() {
		return nil, nil
	}

	key := userCacheKey(sess.Token)
	if raw := s.cache.Get(ctx, key); raw != nil {
		var u domain.User
		if err := json.Unmarshal(raw, &u); err == nil {
			sess.User = &u
			return sess.User, nil
		}
	}

	u, err := s.auth.Me(domain.WithCredential(ctx, sess.Token))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			sess.Token = ""
			sess.User = nil
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	sess.User = u
	s.cacheUser(ctx, sess.Token, u)
	return u, nil
}

func (s *Store) fail(ctx context.Context, sess *domain.Session, op string, err error) error {
	authErr := domain.NewAuthError(err)
	sess.LastError = authErr.Message
	if authErr.Kind == domain.AuthNetwork {
		s.logger.ErrorContext(ctx, op+" failed", "err", err)
	} else {
		s.logger.InfoContext(ctx, op+" rejected", "status", authErr.Status, "message", authErr.Message)
	}
	return authErr
}

func (s *Store) establish(ctx context.Context, w http.ResponseWriter, sess *domain.Session, res *domain.AuthResult) {
	sess.Token = res.Token
	sess.User = res.User
	sess.LastError = ""

	maxAge := DefaultMaxAge
	if exp, ok := s.tokens.ExpiresAt(res.Token); ok {
		maxAge = exp.Sub(s.now())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.cacheUser(ctx, res.Token, res.User)
}

func (s *Store) cacheUser(ctx context.Context, token string, u *domain.User) {
	ttl := s.opts.CacheTTL
	if exp, ok := s.tokens.ExpiresAt(token); ok {
		if remaining := exp.Sub(s.now()); remaining < ttl {
			ttl = remaining
		}
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	s.cache.Set(ctx, userCacheKey(token), raw, ttl)
}

func (s *Store) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func userCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return userCachePrefix + hex.EncodeToString(sum[:])
}
