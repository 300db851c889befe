// Package services defines the business logic for accounts, forms, responses
// and dashboard aggregates. This file centralizes the service-level error
// values so that service methods return them consistently and handlers can
// map them to HTTP results with errors.Is.
//
// Validation failures wrap ErrValidation with a human-readable detail, e.g.
// fmt.Errorf("%w: name is required", ErrValidation).
package services

import (
	"errors"

	"github.com/tbourn/formflow-backend/internal/repo"
)

var (
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated means no bearer token was presented.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidToken means a token was presented but could not be verified.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrFormNotFound covers a missing form, a form owned by someone else,
	// and an unpublished form requested through the public surface.
	ErrFormNotFound = errors.New("form not found")
)

// isNotFound reports whether err is the repository's not-found sentinel.
func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }
