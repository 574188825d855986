// Package common defines shared constants and sentinel errors used across
// the server and CLI. Callers should match these values with errors.Is and
// add detail by wrapping, e.g. fmt.Errorf("%w: name is required", ErrValidation).
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Input validation errors. The wrapped detail is safe to show to clients.
	ErrValidation = errors.New("validation error")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrExternalService = errors.New("external service error")

	// Auth errors (missing, malformed, or tampered token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsAuthError reports whether err belongs to the authentication family.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrorUnauthorized) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired)
}

// Detail returns the text a caller wrapped around sentinel, or "" when err
// does not wrap it with a message.
func Detail(err, sentinel error) string {
	if err == nil || !errors.Is(err, sentinel) {
		return ""
	}
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return ""
}
