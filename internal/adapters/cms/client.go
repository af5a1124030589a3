// Package cms forwards requests to the remote content API and normalizes its responses.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"discodoge/internal/domain"
)

const maxBodyBytes = 10 << 20

// Client is a single forward-and-relay to the content API. It never caches or retries.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the content API at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// BaseURL returns the content API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is an upstream success body, passed through unchanged.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode content api response: %w", err)
	}
	return nil
}

// errorEnvelope is the structured error shape of the content API.
type errorEnvelope struct {
	Error *struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// Do sends one request to path (relative to the base URL). When ctx carries a credential it
// is attached as a bearer token. body, if non-nil, is sent as JSON.
// A structured upstream error is returned as *domain.RemoteError with its status and message;
// transport failures wrap domain.ErrNetwork.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := domain.CredentialFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s: %v", domain.ErrNetwork, method, path, err)
	}

	if remote := normalizeError(resp.StatusCode, raw); remote != nil {
		return nil, remote
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// normalizeError returns the structured error carried by raw, or a status-only error for
// a non-2xx answer without one. Anything else is a success body.
func normalizeError(status int, raw []byte) *domain.RemoteError {
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error != nil && (env.Error.Status != 0 || env.Error.Message != "") {
		remote := &domain.RemoteError{Status: env.Error.Status, Message: env.Error.Message}
		if remote.Status == 0 {
			remote.Status = status
		}
		if remote.Status < http.StatusBadRequest {
			remote.Status = http.StatusBadGateway
		}
		if remote.Message == "" {
			remote.Message = http.StatusText(remote.Status)
		}
		return remote
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &domain.RemoteError{Status: status, Message: http.StatusText(status)}
	}
	return nil
}

// ResolveURL makes an upload path returned by the content API absolute.
func (c *Client) ResolveURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.baseURL + "/" + strings.TrimPrefix(ref, "/")
}
