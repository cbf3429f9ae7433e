package sessions

import (
	"sync"
	"time"

	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
)

// Session is the per-run authentication context: at most one live token and the
// credentials that obtained it. Create one per test run (or per parallel worker) and
// pass it to the token manager; nothing here is package-global.
type Session struct {
	mu          sync.RWMutex
	token       *oauthmodel.Token
	credentials *oauthmodel.Credentials
}

// Snapshot is a consistent copy of a Session taken under its lock.
type Snapshot struct {
	Token       *oauthmodel.Token
	Credentials *oauthmodel.Credentials
}

func (s Snapshot) HasToken() bool {
	return s.Token != nil && s.Token.AccessToken != ""
}

func (s Snapshot) HasCredentials() bool {
	return s.Credentials != nil
}

func New() *Session {
	return &Session{}
}

// Store replaces the live token. When creds is nil the previously stored credentials are
// kept; a token is never stored without credentials to log in again with.
func (s *Session) Store(token oauthmodel.Token, creds *oauthmodel.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds == nil && s.credentials == nil {
		return apperrors.ErrNoCredentials
	}
	s.token = &token
	if creds != nil {
		c := *creds
		s.credentials = &c
	}
	return nil
}

// SetCredentials seeds the credentials of a session that logs in lazily: the first
// Refresh or EnsureFreshToken logs in with them. They are kept even if that login fails.
func (s *Session) SetCredentials(creds oauthmodel.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = &creds
}

// SetExpiry overrides the live token's expiry. Used to force artificial expiry in tests.
// A zero time marks the TTL as unknown. No-op without a token.
func (s *Session) SetExpiry(expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return
	}
	t := *s.token
	t.Expiry = expiry
	s.token = &t
}

// ClearToken drops the token but keeps the credentials.
func (s *Session) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Clear resets the session to its initial empty state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.credentials = nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	if s.token != nil {
		t := *s.token
		snap.Token = &t
	}
	if s.credentials != nil {
		c := *s.credentials
		snap.Credentials = &c
	}
	return snap
}

func (s *Session) Token() (oauthmodel.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return oauthmodel.Token{}, false
	}
	return *s.token, true
}

// AccessToken returns the live access token or "" when there is none.
func (s *Session) AccessToken() string {
	t, ok := s.Token()
	if !ok {
		return ""
	}
	return t.AccessToken
}

// Expiry returns the live token's expiry; false when there is no token or its TTL is unknown.
func (s *Session) Expiry() (time.Time, bool) {
	t, ok := s.Token()
	if !ok || !t.HasExpiry() {
		return time.Time{}, false
	}
	return t.Expiry, true
}

func (s *Session) Credentials() (oauthmodel.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credentials == nil {
		return oauthmodel.Credentials{}, false
	}
	return *s.credentials, true
}
