package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"discodoge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "remote status propagated",
			err:        fmt.Errorf("update: %w", &domain.RemoteError{Status: http.StatusForbidden, Message: "Forbidden"}),
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeUnauthorized,
			wantMsg:    "Forbidden",
		},
		{
			name:       "remote server error",
			err:        &domain.RemoteError{Status: http.StatusServiceUnavailable, Message: "Service Unavailable"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeUpstream,
			wantMsg:    "Service Unavailable",
		},
		{
			name:       "rejected login",
			err:        &domain.AuthError{Kind: domain.AuthRejected, Status: http.StatusBadRequest, Message: "Invalid identifier or password"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
			wantMsg:    "Invalid identifier or password",
		},
		{
			name:       "login network failure",
			err:        domain.NewAuthError(domain.ErrNetwork),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeBadGateway,
			wantMsg:    "could not reach the authentication service",
		},
		{
			name:       "validation",
			err:        &domain.ValidationError{Fields: []string{"venue"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
			wantMsg:    "please fill in all fields: venue",
		},
		{
			name:       "not found sentinel",
			err:        fmt.Errorf("get: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
			wantMsg:    "not found",
		},
		{
			name:       "network sentinel",
			err:        fmt.Errorf("%w: timeout", domain.ErrNetwork),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeBadGateway,
			wantMsg:    domain.ErrNetwork.Error(),
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
			wantMsg:    "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := ErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method DELETE is not allowed")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var envelope APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	assert.Nil(t, envelope.Data)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Method DELETE is not allowed", envelope.Error.Message)
}

type loginBody struct {
	Identifier string `json:"identifier"`
}

func (b loginBody) Validate() []string {
	if b.Identifier == "" {
		return []string{"identifier is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantMsg string
	}{
		{name: "valid", body: `{"identifier":"doge"}`, wantOK: true},
		{name: "empty body", body: ``, wantMsg: "request body is empty"},
		{name: "validation failure", body: `{"identifier":""}`, wantMsg: "identifier is required"},
		{name: "unknown field", body: `{"identifier":"doge","admin":true}`},
		{name: "trailing object", body: `{"identifier":"doge"}{"identifier":"cheems"}`, wantMsg: "request body must contain a single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var dest loginBody

			ok := DecodeAndValidate(rr, req, &dest)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "doge", dest.Identifier)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var envelope APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, ErrCodeBadRequest, envelope.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, envelope.Error.Message)
			}
		})
	}
}
