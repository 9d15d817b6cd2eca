package auth

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for authentication and authorization.
var (
	// ErrUnauthenticated matches every *AuthenticationError.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// Authentication failure causes
	ErrMissingAPIKey    = errors.New("auth: API key is required")
	ErrInvalidAPIKey    = errors.New("auth: invalid API key")
	ErrOriginNotAllowed = errors.New("auth: origin not allowed")
	ErrRateLimited      = errors.New("auth: rate limit exceeded")
	ErrTokenExpired     = errors.New("auth: token expired")
	ErrTokenMalformed   = errors.New("auth: token malformed")

	// Authorization errors
	ErrForbidden = errors.New("auth: access denied")
)

// AuthenticationError is returned by Authenticate when a request is rejected.
type AuthenticationError struct {
	// Reason is the client-facing message, e.g. "Invalid API key".
	Reason string

	// ResetAt is set for rate-limit rejections: when the window reopens.
	ResetAt time.Time

	// Cause is one of the failure sentinels, possibly wrapping more detail.
	Cause error
}

// Error returns the client-facing reason.
func (e *AuthenticationError) Error() string {
	return e.Reason
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthenticated
}

// outcome is the short label used for metrics.
func (e *AuthenticationError) outcome() string {
	switch {
	case errors.Is(e.Cause, ErrMissingAPIKey):
		return "missing_key"
	case errors.Is(e.Cause, ErrOriginNotAllowed):
		return "origin_denied"
	case errors.Is(e.Cause, ErrRateLimited):
		return "rate_limited"
	default:
		return "invalid_key"
	}
}

func errMissingAPIKey() *AuthenticationError {
	return &AuthenticationError{Reason: "API key is required", Cause: ErrMissingAPIKey}
}

func errInvalidAPIKey(cause error) *AuthenticationError {
	if cause == nil {
		cause = ErrInvalidAPIKey
	} else {
		cause = fmt.Errorf("%w: %w", ErrInvalidAPIKey, cause)
	}
	return &AuthenticationError{Reason: "Invalid API key", Cause: cause}
}

func errOriginNotAllowed() *AuthenticationError {
	return &AuthenticationError{Reason: "Origin not allowed", Cause: ErrOriginNotAllowed}
}

func errRateLimited(resetAt time.Time, cause error) *AuthenticationError {
	return &AuthenticationError{
		Reason:  "Rate limit exceeded. Try again after " + formatResetAt(resetAt),
		ResetAt: resetAt,
		Cause:   fmt.Errorf("%w: %w", ErrRateLimited, cause),
	}
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	// ClientID identifies the denied caller.
	ClientID string

	// Resource is the resource that was denied access to.
	Resource string

	// Action is the action that was denied.
	Action string

	// Reason explains why access was denied.
	Reason string

	// Cause is the underlying error if any.
	Cause error
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: client=%q resource=%q action=%q reason=%q",
		e.ClientID, e.Resource, e.Action, e.Reason)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *AuthzError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}
