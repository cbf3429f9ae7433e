package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is what the test kit reads from an access token. The signature is not verified:
// the kit is a client and never holds the server's key.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ID        string    `json:"jti,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Inspect decodes the claims of a JWT access token without verifying it.
func Inspect(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "token.Inspect ParseUnverified")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	c := &Claims{}
	c.Subject, _ = mapClaims.GetSubject()
	c.Issuer, _ = mapClaims.GetIssuer()
	c.Email, _ = mapClaims["email"].(string)
	c.Role, _ = mapClaims["role"].(string)
	c.ID, _ = mapClaims["jti"].(string)
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
