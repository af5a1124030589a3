package cms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"discodoge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		status     int
		respBody   string
		wantAuth   string
		wantStatus int
		wantMsg    string
		wantBody   string
	}{
		{
			name:     "success body passes through unchanged",
			status:   http.StatusOK,
			respBody: `{"data":[{"id":1}],"meta":{}}`,
			wantBody: `{"data":[{"id":1}],"meta":{}}`,
		},
		{
			name:     "credential attached as bearer",
			token:    "jwt-abc",
			status:   http.StatusOK,
			respBody: `[]`,
			wantAuth: "Bearer jwt-abc",
			wantBody: `[]`,
		},
		{
			name:       "structured error re-emitted with its status and message",
			status:     http.StatusBadRequest,
			respBody:   `{"data":null,"error":{"status":400,"name":"ValidationError","message":"Invalid identifier or password"}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid identifier or password",
		},
		{
			name:       "structured error without status uses response status",
			status:     http.StatusForbidden,
			respBody:   `{"error":{"message":"Forbidden"}}`,
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
		},
		{
			name:       "non-2xx without structure",
			status:     http.StatusNotFound,
			respBody:   `Not Found`,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Not Found",
		},
		{
			name:     "error key that is not the structured shape is opaque",
			status:   http.StatusOK,
			respBody: `{"error":null,"data":{"id":2}}`,
			wantBody: `{"error":null,"data":{"id":2}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.respBody)
			}))
			defer srv.Close()

			ctx := context.Background()
			if tt.token != "" {
				ctx = domain.WithCredential(ctx, tt.token)
			}
			resp, err := NewClient(srv.URL+"/", srv.Client()).Do(ctx, http.MethodGet, "/api/events", nil, nil)

			assert.Equal(t, tt.wantAuth, gotAuth)
			if tt.wantStatus != 0 {
				var remote *domain.RemoteError
				require.True(t, errors.As(err, &remote), "want RemoteError, got %v", err)
				assert.Equal(t, tt.wantStatus, remote.Status)
				assert.Equal(t, tt.wantMsg, remote.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(resp.Body))
		})
	}
}

func TestClient_Do_SendsQueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]any
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	q := url.Values{}
	q.Set("filters[slug][$eq]", "doge-fest")
	q.Set("populate", "*")
	_, err := NewClient(srv.URL, nil).Do(context.Background(), http.MethodPut, "/api/events/1", q, map[string]string{"name": "x"})
	require.NoError(t, err)

	assert.Equal(t, "doge-fest", gotQuery.Get("filters[slug][$eq]"))
	assert.Equal(t, "*", gotQuery.Get("populate"))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "x", gotBody["name"])
}

func TestClient_Do_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, nil).Do(context.Background(), http.MethodGet, "/api/events", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_ResolveURL(t *testing.T) {
	c := NewClient("http://cms.local:1337/", nil)
	assert.Equal(t, "http://cms.local:1337/uploads/doge.jpg", c.ResolveURL("/uploads/doge.jpg"))
	assert.Equal(t, "https://res.cloudinary.com/x.jpg", c.ResolveURL("https://res.cloudinary.com/x.jpg"))
	assert.Equal(t, "", c.ResolveURL(""))
}
