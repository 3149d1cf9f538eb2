// Package common defines shared constants and sentinel errors used across
// PodMate layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSession    = errors.New("no active session")

	// Credential store.
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Provider access.
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrProvider      = errors.New("provider error")
	ErrRateLimited   = errors.New("rate limited by provider")

	// Document ingestion.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
)
