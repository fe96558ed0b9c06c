// Package common defines the sentinel errors shared by the storage, service
// and transport layers of OmniGuard. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Input errors, rejected before storage is touched.
	ErrValidation = errors.New("validation error")

	// Lookup and uniqueness errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Credential errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidToken      = errors.New("invalid token")

	// Storage errors. ErrConnect is fatal for the process.
	ErrStorage = errors.New("storage error")
	ErrConnect = errors.New("database connection failed")

	// Service-level errors (generic/internal flow control).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)
