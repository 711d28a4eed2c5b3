package token

import "errors"

var (
	// ErrNoSigningSecret is returned when no JWT signing secret is configured
	ErrNoSigningSecret = errors.New("session signing secret is not configured")

	// ErrExpiredToken is returned when a session token's expiry has passed
	ErrExpiredToken = errors.New("session token has expired")

	// ErrInvalidToken is returned for any other structural or signature defect
	ErrInvalidToken = errors.New("invalid session token")
)
