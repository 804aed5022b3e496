// Package service holds the authentication and card business logic. It
// depends only on the store interfaces declared here; concrete MySQL and
// MongoDB repositories are injected at startup.
package service

import "errors"

// Error taxonomy shared with the HTTP layer. Validation failures are
// reported as *validation.Error; anything else is an internal failure.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	// ErrInconsistent marks stored data that violates a reference the
	// service relies on, e.g. a refresh token whose user is gone.
	ErrInconsistent = errors.New("inconsistent state")
)
