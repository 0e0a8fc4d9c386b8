package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common business logic failures.
var (
	ErrValidation         = errors.New("invalid request")
	ErrNotFound           = errors.New("requested resource not found")
	ErrInvalidTransition  = errors.New("illegal status transition")
	ErrUnauthorized       = errors.New("actor is not allowed to perform this action")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials provided")
)

// ErrorCode maps a domain error to the short code reported to clients over
// the realtime channel and the HTTP API.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "internal_error"
	}
}
