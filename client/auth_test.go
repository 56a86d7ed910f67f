package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *MemoryStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sessions := NewMemoryStore()
	c, err := New(server.URL, WithSessionStore(sessions))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, sessions
}

func TestLoginSuccessTransitionsToAuthenticated(t *testing.T) {
	c, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/authenticate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"jwt-abc","refreshToken":"opaque-def"}`))
	}))

	auth := c.Auth()
	if auth.State() != StateAnonymous {
		t.Fatalf("expected initial state ANONYMOUS, got %s", auth.State())
	}

	pair, err := auth.Login(context.Background(), "avery@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if auth.State() != StateAuthenticated {
		t.Fatalf("expected AUTHENTICATED, got %s", auth.State())
	}
	if pair.AccessToken != "jwt-abc" {
		t.Fatalf("unexpected pair %+v", pair)
	}
	if !sessions.HasSession() {
		t.Fatalf("expected session store to hold the access token")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"INVALID_CREDENTIALS","error":"Invalid email or password"}`))
	}))

	auth := c.Auth()
	_, err := auth.Login(context.Background(), "avery@example.com", "wrong")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindInvalidCredentials {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
	if auth.State() != StateAnonymous {
		t.Fatalf("expected state back to ANONYMOUS, got %s", auth.State())
	}
	if sessions.HasSession() {
		t.Fatalf("expected no session after failed login")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"ACCOUNT_DISABLED","error":"Account is disabled"}`))
	}))

	_, err := c.Auth().Login(context.Background(), "avery@example.com", "hunter2hunter2")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindAccountDisabled {
		t.Fatalf("expected AccountDisabled, got %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"EMAIL_ALREADY_EXISTS","error":"Email already registered"}`))
	}))

	_, err := c.Auth().Signup(context.Background(), "avery", "avery@example.com", "hunter2hunter2")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindEmailAlreadyExists {
		t.Fatalf("expected EmailAlreadyExists, got %v", err)
	}
}

func TestLoginServerErrorCollapsesToNetworkOrServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Auth().Login(context.Background(), "avery@example.com", "hunter2hunter2")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetworkOrServerError {
		t.Fatalf("expected NetworkOrServerError, got %v", err)
	}
}

func TestLoginUnreachableServer(t *testing.T) {
	sessions := NewMemoryStore()
	c, err := New("http://127.0.0.1:1", WithSessionStore(sessions))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Auth().Login(context.Background(), "avery@example.com", "hunter2hunter2")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetworkOrServerError {
		t.Fatalf("expected NetworkOrServerError, got %v", err)
	}
}

func TestLogoutClearsSessionEvenWhenServerFails(t *testing.T) {
	c, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	sessions.SetTokens("jwt-abc", "opaque-def")

	auth := c.Auth()
	auth.setState(StateAuthenticated)
	auth.Logout(context.Background())

	if sessions.HasSession() {
		t.Fatalf("expected session cleared despite server failure")
	}
	if auth.State() != StateAnonymous {
		t.Fatalf("expected ANONYMOUS after logout, got %s", auth.State())
	}
}

func TestRefreshStoresRotatedPair(t *testing.T) {
	c, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/refresh" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"accessToken":"jwt-new","refreshToken":"opaque-new"}`))
	}))
	sessions.SetTokens("jwt-old", "opaque-old")

	pair, err := c.Auth().Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if pair.RefreshToken != "opaque-new" || sessions.RefreshToken() != "opaque-new" {
		t.Fatalf("expected rotated refresh token stored, got %+v", pair)
	}
}

func TestMemoryStoreAttachesBearer(t *testing.T) {
	seen := ""
	c, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	sessions.SetTokens("jwt-abc", "")

	if _, err := c.Workspaces().List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if seen != "Bearer jwt-abc" {
		t.Fatalf("expected bearer header, got %q", seen)
	}
}
