package token

import (
	"context"

	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"golang.org/x/oauth2"
)

type managerTokenSource struct {
	ctx context.Context
	m   *Manager
}

var _ oauth2.TokenSource = (*managerTokenSource)(nil)

// TokenSource adapts the manager for oauth2.Transport. A fresh cached token is returned
// without any network call; otherwise EnsureFreshToken runs first.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, m: m}
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	if s.m.State() == TokenFresh {
		if tok, ok := s.m.session.Token(); ok {
			return tok.OAuth2(), nil
		}
	}

	resp, err := s.m.EnsureFreshToken(s.ctx)
	if err != nil {
		return nil, err
	}

	// A failed recovery leaves the old token behind; only a fresh one may be handed out.
	tok, ok := s.m.session.Token()
	if !ok || (!resp.Result.IsSuccess() && s.m.State() != TokenFresh) {
		return nil, apperrors.Wrapf(apperrors.ErrNoToken, "auth server answered %d: %s", resp.StatusCode, resp.Result.Reason)
	}
	return tok.OAuth2(), nil
}
