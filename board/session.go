package board

import (
	"context"
	"net/http"
	"sync"

	"taskboard/dto"
	"taskboard/model"
)

// Session holds the signed-in identity and its bearer token. It is passed
// explicitly to everything that needs the current user.
type Session struct {
	mu           sync.RWMutex
	user         *model.User
	token        string
	refreshToken string
	onLogout     []func()
}

func NewSession() *Session {
	return &Session{}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Session) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Restore installs a previously obtained identity, e.g. one read back
// from disk.
func (s *Session) Restore(auth dto.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := auth.User
	s.user = &u
	s.token = auth.AccessToken
	s.refreshToken = auth.RefreshToken
}

// OnLogout registers fn to run after every transition to signed out.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Logout clears identity and tokens. Calling it while signed out does
// nothing.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.user == nil && s.token == "" {
		s.mu.Unlock()
		return
	}
	s.user = nil
	s.token = ""
	s.refreshToken = ""
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Login authenticates against /auth/login and signs the session in.
func (s *Session) Login(ctx context.Context, t *Transport, username, password string) error {
	return s.authenticate(ctx, t, "/auth/login", dto.LoginRequest{Username: username, Password: password})
}

// Register creates an account through /auth/register and signs it in.
func (s *Session) Register(ctx context.Context, t *Transport, req dto.RegisterRequest) error {
	if fields := dto.Validate(req); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return s.authenticate(ctx, t, "/auth/register", req)
}

func (s *Session) authenticate(ctx context.Context, t *Transport, path string, body any) error {
	var resp dto.AuthResponse
	if err := t.Do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return err
	}
	s.Restore(resp)
	return nil
}
