package auth

import (
	"context"
	"sync"

	"github.com/okian/prode/internal/store"
	"github.com/okian/prode/pkg/logger"
)

// TokenStore holds the default credential for API calls and keeps it in sync
// with the client-local store. A token found in the store at construction is
// installed immediately; expiry is discovered reactively through a 401.
type TokenStore struct {
	mu        sync.RWMutex
	st        *store.Store
	token     string
	onExpired func()
	log       logger.Logger
}

// Option applies a configuration option to the TokenStore.
type Option func(*TokenStore)

// WithLogger sets a custom logger for the token store.
func WithLogger(l logger.Logger) Option {
	return func(s *TokenStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSessionExpiredFunc registers the callback fired when the server rejects
// the credential. The CLI uses it to tell the user to log in again; it is the
// client analogue of redirecting to the login view.
func WithSessionExpiredFunc(fn func()) Option {
	return func(s *TokenStore) {
		s.onExpired = fn
	}
}

// NewTokenStore builds a TokenStore backed by st.
func NewTokenStore(st *store.Store, opts ...Option) *TokenStore {
	s := &TokenStore{
		st:  st,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if tok, ok := st.Get(store.KeyToken); ok {
		s.token = tok
	}
	return s
}

// Token returns the current credential, empty when logged out.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set installs token as the default credential and persists it.
func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.st.Set(store.KeyToken, token); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Clear removes the credential from memory and the store.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.st.Delete(store.KeyToken)
}

// Claims decodes the current token's claims. ok is false when no token is
// installed or it cannot be decoded.
func (s *TokenStore) Claims() (Claims, bool) {
	return DecodeClaims(s.Token())
}

// Unauthorized is the global authorization-failure hook: any API response
// with an auth-failure status lands here, regardless of which call it was.
// It logs out unconditionally and fires the session-expired callback.
func (s *TokenStore) Unauthorized() {
	s.mu.Lock()
	s.token = ""
	err := s.st.Delete(store.KeyToken)
	fn := s.onExpired
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(context.Background(), "clearing rejected token failed", logger.Error(err))
	}
	if fn != nil {
		fn()
	}
}
