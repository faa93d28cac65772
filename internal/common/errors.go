// Package common defines shared constants and sentinel errors used across
// the portal server and its CLI client. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrIdentityConflict = errors.New("a user with this email address has already been registered")

	// Service-level errors (generic/internal flow control).
	ErrValidation                   = errors.New("validation failed")
	ErrInvalidCredentials           = errors.New("invalid credentials")
	ErrProfileNotFound              = errors.New("user profile not found")
	ErrProfileCreationFailed        = errors.New("profile creation failed")
	ErrCurrentSecretIncorrect       = errors.New("current password is incorrect")
	ErrSecretUpdateFailed           = errors.New("password update failed")
	ErrEmailUpdateFailed            = errors.New("email update failed")
	ErrNoFieldsProvided             = errors.New("no fields to update")
	ErrManualReconciliationRequired = errors.New("manual reconciliation required")

	// Auth errors (invalid, malformed or revoked token).
	ErrInvalidToken = errors.New("invalid or expired token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Transport errors.
	ErrRateLimited = errors.New("too many requests")
)
