package client

import (
	"context"
	"sync"
)

// AuthState is the explicit session state machine. Transitions:
// Anonymous -> Authenticating -> Authenticated on success, back to Anonymous
// on failure or logout.
type AuthState string

const (
	StateAnonymous      AuthState = "ANONYMOUS"
	StateAuthenticating AuthState = "AUTHENTICATING"
	StateAuthenticated  AuthState = "AUTHENTICATED"
)

type AuthService struct {
	client *Client

	mu    sync.Mutex
	state AuthState
}

// TokenPair is the auth response body. Cookie-based callers can ignore it;
// the session store already captured the cookies.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// State reports the current auth state. A zero-value service is Anonymous.
func (s *AuthService) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return StateAnonymous
	}
	return s.state
}

func (s *AuthService) setState(state AuthState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Login authenticates with email and password. On failure the session store
// is left untouched and the state returns to Anonymous; the caller sees one
// of InvalidCredentials, AccountDisabled, or NetworkOrServerError.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	s.setState(StateAuthenticating)

	var pair TokenPair
	err := s.client.do(ctx, "POST", "/auth/v1/authenticate", map[string]string{
		"email":    email,
		"password": password,
	}, &pair, true)
	if err != nil {
		s.setState(StateAnonymous)
		return TokenPair{}, err
	}

	if store, ok := s.client.sessions.(*MemoryStore); ok {
		store.SetTokens(pair.AccessToken, pair.RefreshToken)
	}
	s.setState(StateAuthenticated)
	return pair, nil
}

// Signup registers a new account and signs it in. A duplicate email surfaces
// as EmailAlreadyExists.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (TokenPair, error) {
	s.setState(StateAuthenticating)

	var pair TokenPair
	err := s.client.do(ctx, "POST", "/auth/v1/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &pair, true)
	if err != nil {
		s.setState(StateAnonymous)
		return TokenPair{}, err
	}

	if store, ok := s.client.sessions.(*MemoryStore); ok {
		store.SetTokens(pair.AccessToken, pair.RefreshToken)
	}
	s.setState(StateAuthenticated)
	return pair, nil
}

// Refresh exchanges the stored refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context) (TokenPair, error) {
	body := map[string]string{}
	if store, ok := s.client.sessions.(*MemoryStore); ok {
		body["refreshToken"] = store.RefreshToken()
	}

	var pair TokenPair
	if err := s.client.do(ctx, "POST", "/auth/v1/refresh", body, &pair, false); err != nil {
		return TokenPair{}, err
	}
	if store, ok := s.client.sessions.(*MemoryStore); ok {
		store.SetTokens(pair.AccessToken, pair.RefreshToken)
	}
	s.setState(StateAuthenticated)
	return pair, nil
}

// Logout ends the session. Local state is cleared unconditionally: a failed
// or unreachable server must not leave the caller half signed in, so the
// server call is best-effort and its error is dropped.
func (s *AuthService) Logout(ctx context.Context) {
	_ = s.client.do(ctx, "POST", "/auth/v1/logout", nil, nil, false)
	s.client.sessions.Clear()
	s.setState(StateAnonymous)
}
