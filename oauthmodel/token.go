package oauthmodel

import (
	"time"

	"github.com/jrsteele09/toolshop-apitest/internal/utils"
	"golang.org/x/oauth2"
)

// Token is an accepted bearer token together with the local timing needed to judge freshness.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration // As reported by the server, zero when unknown
	IssuedAt    time.Time     // Local clock when the token was accepted
	Expiry      time.Time     // IssuedAt + ExpiresIn, zero when unknown
}

// NewToken builds a Token from a successful token payload accepted at issuedAt.
func NewToken(resp *TokenResponse, issuedAt time.Time) Token {
	t := Token{
		AccessToken: utils.Value(resp.AccessToken),
		TokenType:   resp.TokenType,
		IssuedAt:    issuedAt,
	}
	if resp.ExpiresIn != nil && *resp.ExpiresIn > 0 && int64(*resp.ExpiresIn) <= MaxExpiresIn {
		t.ExpiresIn = time.Duration(*resp.ExpiresIn) * time.Second
		t.Expiry = issuedAt.Add(t.ExpiresIn)
	}
	return t
}

func (t Token) HasExpiry() bool {
	return !t.Expiry.IsZero()
}

func (t Token) IssuedAtEpochMs() int64 {
	return t.IssuedAt.UnixMilli()
}

// ExpiryEpochMs returns 0 when the expiry is unknown.
func (t Token) ExpiryEpochMs() int64 {
	if !t.HasExpiry() {
		return 0
	}
	return t.Expiry.UnixMilli()
}

// OAuth2 converts the token for use with golang.org/x/oauth2 transports.
func (t Token) OAuth2() *oauth2.Token {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   tokenType,
		Expiry:      t.Expiry,
	}
}
