package domain

import (
	"context"
	"time"
)

// User is the authenticated principal. The content API owns it; we hold a read-only copy.
// swagger:model User
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthResult is what the content API returns for a successful login or registration.
type AuthResult struct {
	Token string
	User  *User
}

// Authenticator talks to the content API's auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (*AuthResult, error)
	Register(ctx context.Context, username, email, secret string) (*AuthResult, error)
	// Me resolves the user owning the credential carried in ctx.
	Me(ctx context.Context) (*User, error)
}

// TokenInspector reads the expiry of an opaque bearer credential, if it carries one.
type TokenInspector interface {
	ExpiresAt(token string) (time.Time, bool)
}
