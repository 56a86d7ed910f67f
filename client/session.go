package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// SessionStore holds the credential state between requests. The HTTP layer
// does not care where cookies live; tests and non-browser callers inject a
// memory store.
type SessionStore interface {
	// Attach adds stored credentials to an outgoing request.
	Attach(req *http.Request)
	// Update records credentials from a response.
	Update(baseURL *url.URL, resp *http.Response)
	// Clear drops all stored credentials.
	Clear()
	// HasSession reports whether an access credential is present. Presence
	// only; the token is not validated.
	HasSession() bool
}

// JarStore keeps cookies in a net/http cookie jar, the closest Go equivalent
// of the browser's cookie handling.
type JarStore struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	baseURL *url.URL
}

func NewJarStore() (*JarStore, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &JarStore{jar: jar}, nil
}

func (s *JarStore) Attach(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cookie := range s.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
}

func (s *JarStore) Update(baseURL *url.URL, resp *http.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = baseURL
	s.jar.SetCookies(baseURL, resp.Cookies())
}

func (s *JarStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// cookiejar has no delete; a fresh jar is the reset.
	jar, err := cookiejar.New(nil)
	if err == nil {
		s.jar = jar
	}
}

// HasSession reports cookie presence for the last host the store saw.
func (s *JarStore) HasSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseURL == nil {
		return false
	}
	for _, cookie := range s.jar.Cookies(s.baseURL) {
		if cookie.Name == "accessToken" && cookie.Value != "" {
			return true
		}
	}
	return false
}

// MemoryStore keeps tokens in memory for CLI and test callers.
type MemoryStore struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Attach(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}
}

func (s *MemoryStore) Update(_ *url.URL, resp *http.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "accessToken":
			s.accessToken = cookie.Value
		case "refreshToken":
			s.refreshToken = cookie.Value
		}
	}
}

// SetTokens stores a token pair directly, for callers that read them from a
// response body instead of cookies.
func (s *MemoryStore) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}

func (s *MemoryStore) HasSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}
