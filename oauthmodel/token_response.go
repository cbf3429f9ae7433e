package oauthmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jrsteele09/toolshop-apitest/internal/utils"
)

// TokenResponse is the body of POST /users/login and GET /users/refresh.
// The same struct decodes both the success and the failure shapes; DecodeAuthResult
// turns it into an AuthResult so callers never probe fields themselves.
type TokenResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Example: "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token.
	// Example: "bearer"
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 300
	// Absent: the token's TTL is unknown and it is treated as stale
	ExpiresIn *int `json:"expires_in,omitempty"`

	// Error is set by the login endpoint when authentication fails.
	// Example: "Unauthorized"
	Error *string `json:"error,omitempty"`

	// Message is set by the refresh endpoint when the bearer token is invalid or expired.
	// Example: "Unauthorized"
	Message *string `json:"message,omitempty"`
}

// LoginRequest is the JSON body of POST /users/login.
type LoginRequest = Credentials

// MaxExpiresIn is the largest expires_in, in seconds, that fits a time.Duration.
const MaxExpiresIn = int64(math.MaxInt64 / int64(time.Second))

// UnmarshalJSON accepts expires_in as any JSON number ("300" or "300.0"). Values that are
// not positive or do not fit a time.Duration decode as absent, i.e. an unknown TTL.
func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	type plain TokenResponse
	aux := struct {
		*plain
		ExpiresIn *json.Number `json:"expires_in,omitempty"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.ExpiresIn = nil
	if aux.ExpiresIn == nil {
		return nil
	}
	seconds, err := aux.ExpiresIn.Float64()
	if err != nil {
		return fmt.Errorf("expires_in: %w", err)
	}
	if seconds >= 1 && seconds <= float64(MaxExpiresIn) {
		t.ExpiresIn = utils.Ptr(int(seconds))
	}
	return nil
}
