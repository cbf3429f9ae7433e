package token

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSafetyMargin is how long before expiry a cached token is renewed.
const DefaultSafetyMargin = 60 * time.Second

// AuthServer issues and refreshes bearer tokens. Implementations return an error only for
// transport faults; a rejection is an ordinary Response.
type AuthServer interface {
	Login(ctx context.Context, creds oauthmodel.Credentials) (*oauthmodel.Response, error)
	Refresh(ctx context.Context, accessToken string) (*oauthmodel.Response, error)
}

// Manager owns the token lifecycle of one Session. Calls are serialized so at most one
// auth request is in flight.
type Manager struct {
	authServer   AuthServer
	session      *sessions.Session
	safetyMargin time.Duration
	policy       RecoveryPolicy
	nowFunc      func() time.Time
	logger       zerolog.Logger
	mu           sync.Mutex
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithSafetyMargin(margin time.Duration) ManagerOption {
	return func(m *Manager) {
		m.safetyMargin = margin
	}
}

// WithStrictServerErrors surfaces 5xx refresh responses instead of falling back to login.
func WithStrictServerErrors(strict bool) ManagerOption {
	return func(m *Manager) {
		m.policy.StrictServerErrors = strict
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(authServer AuthServer, session *sessions.Session, options ...ManagerOption) *Manager {
	m := &Manager{
		authServer:   authServer,
		session:      session,
		safetyMargin: DefaultSafetyMargin,
		nowFunc:      time.Now,
		logger:       log.Logger,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.session == nil {
		m.session = sessions.New()
	}
	return m
}

// Session returns the session this manager writes to.
func (m *Manager) Session() *sessions.Session {
	return m.session
}

// State classifies the cached token against the current clock.
func (m *Manager) State() State {
	return Classify(m.session.Snapshot(), m.nowFunc(), m.safetyMargin)
}

// Login authenticates with creds. On success the token and credentials replace the session's;
// on any other response the session is left as it was.
func (m *Manager) Login(ctx context.Context, creds oauthmodel.Credentials) (*oauthmodel.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.login(ctx, creds)
}

// Refresh renews the cached token, logging in again with the cached credentials when
// there is no token or the server will not refresh it.
func (m *Manager) Refresh(ctx context.Context) (*oauthmodel.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh(ctx)
}

// EnsureFreshToken guarantees, barring server rejection, that the cached token has at least
// the safety margin of validity left. A fresh token is only probed, never replaced.
func (m *Manager) EnsureFreshToken(ctx context.Context) (*oauthmodel.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.session.Snapshot()
	state := Classify(snap, m.nowFunc(), m.safetyMargin)
	action := EnsureAction(state, snap.HasCredentials())
	m.logger.Debug().Stringer("state", state).Stringer("action", action).Msg("EnsureFreshToken")

	switch action {
	case ActionLogin:
		return m.login(ctx, *snap.Credentials)
	case ActionProbe:
		resp, err := m.authServer.Refresh(ctx, snap.Token.AccessToken)
		if err != nil {
			return nil, apperrors.Wrapf(err, "Manager.EnsureFreshToken probe")
		}
		return resp, nil
	default:
		return m.refresh(ctx)
	}
}

func (m *Manager) login(ctx context.Context, creds oauthmodel.Credentials) (*oauthmodel.Response, error) {
	resp, err := m.authServer.Login(ctx, creds)
	if err != nil {
		return nil, apperrors.Wrapf(err, "Manager.Login")
	}

	if resp.Result.IsSuccess() {
		if err := m.store(resp, &creds, "login"); err != nil {
			return nil, err
		}
	} else {
		m.logger.Info().
			Int("status", resp.StatusCode).
			Stringer("result", resp.Result.Kind).
			Str("reason", resp.Result.Reason).
			Msg("login not accepted, session unchanged")
	}
	return resp, nil
}

func (m *Manager) refresh(ctx context.Context) (*oauthmodel.Response, error) {
	snap := m.session.Snapshot()
	state := Classify(snap, m.nowFunc(), m.safetyMargin)
	action := RefreshAction(state, snap.HasCredentials())
	m.logger.Debug().Stringer("state", state).Stringer("action", action).Msg("Refresh")

	switch action {
	case ActionLogin:
		return m.login(ctx, *snap.Credentials)
	case ActionAnonymousRefresh:
		resp, err := m.authServer.Refresh(ctx, "")
		if err != nil {
			return nil, apperrors.Wrapf(err, "Manager.Refresh anonymous")
		}
		return resp, nil
	}

	resp, err := m.authServer.Refresh(ctx, snap.Token.AccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "Manager.Refresh")
	}

	switch RecoveryAction(resp, snap.HasCredentials(), m.policy) {
	case ActionStore:
		if err := m.store(resp, nil, "refresh"); err != nil {
			return nil, err
		}
		return resp, nil
	case ActionLogin:
		m.logger.Warn().
			Int("status", resp.StatusCode).
			Stringer("state", TokenInvalid).
			Str("reason", resp.Result.Reason).
			Msg("refresh not accepted, falling back to login")
		return m.login(ctx, *snap.Credentials)
	default:
		m.logger.Warn().
			Int("status", resp.StatusCode).
			Str("reason", resp.Result.Reason).
			Msg("refresh not accepted, no recovery attempted")
		return resp, nil
	}
}

func (m *Manager) store(resp *oauthmodel.Response, creds *oauthmodel.Credentials, via string) error {
	tok := oauthmodel.NewToken(resp.Result.Token, m.nowFunc())
	if err := m.session.Store(tok, creds); err != nil {
		return apperrors.Wrapf(err, "Manager.store via %s", via)
	}

	event := m.logger.Debug().Str("via", via).Dur("expires_in", tok.ExpiresIn)
	if claims, err := Inspect(tok.AccessToken); err == nil {
		event = event.Str("jti", claims.ID).Str("sub", claims.Subject)
	}
	event.Msg("token stored")
	return nil
}
