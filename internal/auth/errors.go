package auth

import "errors"

var (
	// ErrMissingToken is returned when a bearer token cannot be extracted from the request
	ErrMissingToken = errors.New("bearer token required")

	// ErrInvalidToken is returned when the auth provider rejects the credential
	ErrInvalidToken = errors.New("invalid credential")
)
