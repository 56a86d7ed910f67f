// Package guard decides, per inbound request, whether the gateway forwards it
// or bounces it to the login page. The decision is a pure function of the
// request path and cookie presence; token signature and expiry are not
// checked here — that is the API's job on every call it receives.
package guard

import (
	"net/http"
	"net/url"
	"strings"
)

var publicPaths = []string{
	"/",
	"/login",
	"/signup",
	"/forgot-password",
	"/api/public",
}

var publicPrefixes = []string{
	"/_next/",
	"/static/",
	"/favicon.ico",
}

var protectedPrefixes = []string{
	"/dashboard",
	"/documents",
	"/workspace",
	"/settings",
}

type Decision struct {
	Allow      bool
	RedirectTo string
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirectToLogin(path string) Decision {
	return Decision{RedirectTo: "/login?next=" + url.QueryEscape(path)}
}

// Evaluate applies the public allowlist first, then the protected prefix set.
// Paths matching neither are allowed through.
func Evaluate(path string, hasSession bool) Decision {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return allow()
		}
	}
	for _, public := range publicPaths {
		// "/" is exact-match only; a bare prefix match would make every
		// path public.
		if path == public || (public != "/" && strings.HasPrefix(path, public+"/")) {
			return allow()
		}
	}

	if !hasSession {
		for _, prefix := range protectedPrefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return redirectToLogin(path)
			}
		}
	}

	return allow()
}

// Middleware enforces Evaluate ahead of next, reading session presence from
// the named cookie.
func Middleware(cookieName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSession := false
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			hasSession = true
		}

		decision := Evaluate(r.URL.Path, hasSession)
		if !decision.Allow {
			http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
