// Package common defines sentinel errors and small helpers shared by the
// CookMate server layers. Callers should use errors.Is to match the errors.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation failed")
	ErrorNotVerified  = errors.New("email not verified")

	// ErrConflictOnCommit means a multi-entity write could not be applied
	// atomically. Nothing was written; the request is safe to retry.
	ErrConflictOnCommit = errors.New("conflict on commit")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
