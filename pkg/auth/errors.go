package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is returned when credentials are rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUserNotFound is returned by name-only lookups for uncached users.
	ErrUserNotFound = errors.New("user not found")

	// ErrRemoteService is returned when the identity service could not give
	// an answer. It also matches ErrAuthenticationFailed, so callers that
	// only care whether the user got in need a single check.
	ErrRemoteService = fmt.Errorf("%w: identity service unavailable", ErrAuthenticationFailed)
)
