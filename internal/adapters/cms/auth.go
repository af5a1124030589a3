package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"discodoge/internal/domain"
)

// userRecord is the user shape of the content API's users-permissions plugin.
type userRecord struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

func (u userRecord) toDomain() *domain.User {
	return &domain.User{ID: u.ID.String(), Email: u.Email, DisplayName: u.Username}
}

type authResponse struct {
	JWT  string      `json:"jwt"`
	User *userRecord `json:"user"`
}

type authenticator struct {
	client *Client
}

// NewAuthenticator returns a domain.Authenticator backed by the content API.
func NewAuthenticator(client *Client) domain.Authenticator {
	return &authenticator{client: client}
}

func (a *authenticator) Login(ctx context.Context, identifier, secret string) (*domain.AuthResult, error) {
	body := map[string]string{"identifier": identifier, "password": secret}
	return a.authenticate(ctx, "/api/auth/local", body)
}

func (a *authenticator) Register(ctx context.Context, username, email, secret string) (*domain.AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": secret}
	return a.authenticate(ctx, "/api/auth/local/register", body)
}

func (a *authenticator) authenticate(ctx context.Context, path string, body any) (*domain.AuthResult, error) {
	// Credentials are sent on their own, never alongside a stale bearer token.
	ctx = domain.WithCredential(ctx, "")
	resp, err := a.client.Do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	var data authResponse
	if err := resp.Decode(&data); err != nil {
		return nil, err
	}
	if data.JWT == "" || data.User == nil {
		return nil, &domain.RemoteError{Status: http.StatusBadGateway, Message: "content api returned no credential"}
	}
	return &domain.AuthResult{Token: data.JWT, User: data.User.toDomain()}, nil
}

func (a *authenticator) Me(ctx context.Context) (*domain.User, error) {
	if _, ok := domain.CredentialFromContext(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	resp, err := a.client.Do(ctx, http.MethodGet, "/api/users/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	var u userRecord
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return u.toDomain(), nil
}
