// Package common defines shared constants and sentinel errors used across
// client and server layers of GemSpark. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Credential store errors.
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Session directory errors.
	ErrSessionNotFound = errors.New("session not found")

	// Conversation errors.
	ErrModelInvocation = errors.New("model invocation failed")

	// Storage errors.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Export errors.
	ErrExportDisabled = errors.New("transcript export is not configured")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
