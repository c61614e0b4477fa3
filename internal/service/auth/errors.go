package auth

import "errors"

// Token validation failures. The HTTP layer answers every one of them with
// 401; the distinction only shows up in logs.
var (
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrInvalidClaims covers a correctly signed token whose role is unknown
	// or whose customer role lacks an account binding.
	ErrInvalidClaims = errors.New("authentication token has invalid claims")
)
