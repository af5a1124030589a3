package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("content api unreachable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError is a local required-field failure. It never reaches the network.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in all fields: " + strings.Join(e.Fields, ", ")
}

// RemoteError is a non-2xx answer from the content API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("content api returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) and errors.Is(err, ErrUnauthorized) match remote statuses.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// AuthErrorKind classifies login failures.
type AuthErrorKind int

const (
	// AuthRejected means the content API answered with an error.
	AuthRejected AuthErrorKind = iota + 1
	// AuthNetwork means the content API could not be reached.
	AuthNetwork
)

// AuthError is returned by the login and registration paths.
type AuthError struct {
	Kind    AuthErrorKind
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Kind == AuthNetwork {
		return "login failed: " + e.Message
	}
	return "login rejected: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError classifies err from an Authenticator call.
func NewAuthError(err error) *AuthError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return &AuthError{Kind: AuthRejected, Status: remote.Status, Message: remote.Message, Err: err}
	}
	return &AuthError{Kind: AuthNetwork, Status: http.StatusBadGateway, Message: "could not reach the authentication service", Err: err}
}
