package auth

import "errors"

// Internal distinctions for logging; the HTTP layer collapses these
// into generic responses so unauthenticated callers cannot probe for
// account existence.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
	ErrBadCredential  = errors.New("malformed credential")
)
