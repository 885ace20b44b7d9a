package auth

import "errors"

var (
	// ErrInvalidToken is returned for missing, expired or forged session tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrNoPassword is returned when a guard is built without a password.
	ErrNoPassword = errors.New("login password must not be empty")
)
