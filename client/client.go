// Package client is the Go SDK for the Axora API: auth, workspaces, and the
// presigned document-upload handshake.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps an API base URL, an HTTP client, and a session store. All
// service types hang off it.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	sessions SessionStore
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionStore replaces the default cookie-jar session store.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.sessions = store }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute, got %q", baseURL)
	}

	client := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.sessions == nil {
		jar, err := NewJarStore()
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
		client.sessions = jar
	}
	return client, nil
}

// Sessions exposes the session store, mainly so callers can check HasSession
// or clear state.
func (c *Client) Sessions() SessionStore { return c.sessions }

// Auth returns the auth service.
func (c *Client) Auth() *AuthService { return &AuthService{client: c} }

// Workspaces returns the workspace service.
func (c *Client) Workspaces() *WorkspaceService { return &WorkspaceService{client: c} }

// Documents returns the document service.
func (c *Client) Documents() *DocumentService { return &DocumentService{client: c} }

// do issues a JSON request and decodes a JSON response into out (which may be
// nil for 204-style calls). Non-2xx statuses come back as *Error; transport
// failures map to NetworkOrServerError. authStatusMapping selects the
// credential-flavored status mapping used on auth endpoints.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authStatusMapping bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.sessions.Attach(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return apiError(KindNetworkOrServerError, 0, err.Error())
	}
	defer resp.Body.Close()

	c.sessions.Update(c.baseURL, resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readErrorMessage(resp.Body)
		kind := kindForStatus(resp.StatusCode)
		if authStatusMapping {
			kind = authKindForStatus(resp.StatusCode)
		}
		return apiError(kind, resp.StatusCode, message)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apiError(KindNetworkOrServerError, resp.StatusCode, "malformed response body")
	}
	return nil
}

// readErrorMessage pulls the server's error payload if it is well formed,
// without trusting it to be.
func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err != nil {
		return "request failed"
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Code != "" {
		return payload.Code
	}
	return "request failed"
}
