package errors

import (
	"errors"
	"fmt"
)

// Common error types for the API test kit
var (
	// Transport errors
	ErrTransport = errors.New("auth server unreachable")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoCredentials      = errors.New("no credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrNoToken           = errors.New("no token available")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrMalformedResponse = errors.New("malformed auth response")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
