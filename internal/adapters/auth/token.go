package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"discodoge/internal/domain"
)

type jwtInspector struct {
	parser *jwt.Parser
}

// NewJWTInspector returns a TokenInspector for JWTs issued by the content API.
// The signature is not verified here; the content API verifies it on every forwarded call.
// The expiry only decides how long the session cookie lives.
func NewJWTInspector() domain.TokenInspector {
	return &jwtInspector{parser: jwt.NewParser()}
}

func (i *jwtInspector) ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
