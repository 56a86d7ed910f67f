package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		hasSession bool
		allow      bool
		redirectTo string
	}{
		{name: "root without session", path: "/", allow: true},
		{name: "login without session", path: "/login", allow: true},
		{name: "signup without session", path: "/signup", allow: true},
		{name: "forgot password without session", path: "/forgot-password", allow: true},
		{name: "static asset without session", path: "/_next/chunk.js", allow: true},
		{name: "favicon without session", path: "/favicon.ico", allow: true},
		{name: "public api without session", path: "/api/public/status", allow: true},
		{
			name:       "workspace without session",
			path:       "/workspace/abc",
			redirectTo: "/login?next=%2Fworkspace%2Fabc",
		},
		{
			name:       "dashboard without session",
			path:       "/dashboard",
			redirectTo: "/login?next=%2Fdashboard",
		},
		{
			name:       "settings subpage without session",
			path:       "/settings/profile",
			redirectTo: "/login?next=%2Fsettings%2Fprofile",
		},
		{name: "workspace with session", path: "/workspace/abc", hasSession: true, allow: true},
		{name: "documents with session", path: "/documents", hasSession: true, allow: true},
		{name: "unlisted path without session", path: "/about", allow: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(tc.path, tc.hasSession)
			if decision.Allow != tc.allow {
				t.Fatalf("Evaluate(%q, %v).Allow = %v, want %v", tc.path, tc.hasSession, decision.Allow, tc.allow)
			}
			if decision.RedirectTo != tc.redirectTo {
				t.Fatalf("Evaluate(%q, %v).RedirectTo = %q, want %q", tc.path, tc.hasSession, decision.RedirectTo, tc.redirectTo)
			}
		})
	}
}

func TestMiddlewareRedirectsWithoutCookie(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware("accessToken", next)

	req := httptest.NewRequest(http.MethodGet, "/workspace/abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rr.Code)
	}
	if location := rr.Header().Get("Location"); location != "/login?next=%2Fworkspace%2Fabc" {
		t.Fatalf("unexpected redirect location %q", location)
	}
}

func TestMiddlewareForwardsWithCookie(t *testing.T) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware("accessToken", next)

	req := httptest.NewRequest(http.MethodGet, "/workspace/abc", nil)
	// Presence only; the value is deliberately not validated here.
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "anything"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !reached {
		t.Fatal("expected request to reach upstream handler")
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMiddlewareIgnoresEmptyCookie(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := Middleware("accessToken", next)

	req := httptest.NewRequest(http.MethodGet, "/documents/42", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: ""})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302 for empty cookie, got %d", rr.Code)
	}
}
