// Package common defines sentinel errors and constants shared by the TaskLine
// server, its transports and the admin CLI. Callers should match these values
// with errors.Is, since services wrap them with request context.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Request-level errors.
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInternal     = errors.New("internal error")

	// Token errors, reported as ErrorUnauthorized by the guard.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Failures of collaborators outside the database: the reporting mirror and
	// object storage.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
