package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrServerOffline indicates the campus server is unreachable
	ErrServerOffline = errors.New("campus server is unreachable")

	// ErrAuthExpired indicates the session token is invalid or expired
	ErrAuthExpired = errors.New("session token is invalid or expired")

	// ErrInvalidInput indicates a write payload failed validation
	ErrInvalidInput = errors.New("invalid input")
)
