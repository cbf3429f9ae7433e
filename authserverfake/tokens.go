package authserverfake

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/users"
)

func (s *Server) issueToken(account *users.Account) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"iss":   s.issuer,
		"sub":   account.ID,
		"email": account.Email,
		"role":  string(account.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenExpiry).Unix(),
		"jti":   uuid.New().String(), // Unique per token so a refresh never repeats a token
	}
	return s.signer.Sign(claims)
}

// verify checks signature, expiry and revocation and returns the token's account.
func (s *Server) verify(rawToken string) (*users.Account, jwt.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, nil, apperrors.ErrInvalidToken
	}

	token, err := jwt.Parse(rawToken, s.signer.GetVerificationKey,
		jwt.WithTimeFunc(s.nowFunc),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, apperrors.ErrTokenExpired
		}
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, nil, apperrors.ErrInvalidToken
	}

	if jti, _ := claims["jti"].(string); jti != "" && s.revoked.contains(jti) {
		return nil, nil, apperrors.ErrTokenRevoked
	}

	sub, _ := claims.GetSubject()
	account, err := s.userRepo.GetByID(sub)
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrUserNotFound, "sub %q", sub)
	}
	return account, claims, nil
}

// Revoke invalidates an issued token, as if the server had blacklisted it.
func (s *Server) Revoke(rawToken string) error {
	_, claims, err := s.verify(rawToken)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return errors.New("token missing jti claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return errors.New("token missing exp claim")
	}
	s.revoked.revoke(jti, exp.Time, s.nowFunc())
	return nil
}

func (s *Server) expiresInSeconds() int {
	return int(s.tokenExpiry / time.Second)
}
