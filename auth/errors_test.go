package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrUnauthenticated", ErrUnauthenticated},
		{"ErrMissingAPIKey", ErrMissingAPIKey},
		{"ErrInvalidAPIKey", ErrInvalidAPIKey},
		{"ErrOriginNotAllowed", ErrOriginNotAllowed},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrTokenExpired", ErrTokenExpired},
		{"ErrTokenMalformed", ErrTokenMalformed},
		{"ErrForbidden", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil || tt.err.Error() == "" {
				t.Errorf("%s is nil or has an empty message", tt.name)
			}
		})
	}
}

func TestAuthenticationError(t *testing.T) {
	tests := []struct {
		name        string
		err         *AuthenticationError
		wantCause   error
		wantOutcome string
	}{
		{"missing", errMissingAPIKey(), ErrMissingAPIKey, "missing_key"},
		{"invalid", errInvalidAPIKey(nil), ErrInvalidAPIKey, "invalid_key"},
		{"invalid token", errInvalidAPIKey(ErrTokenExpired), ErrTokenExpired, "invalid_key"},
		{"origin", errOriginNotAllowed(), ErrOriginNotAllowed, "origin_denied"},
		{"rate", errRateLimited(time.Unix(0, 0), errors.New("full")), ErrRateLimited, "rate_limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrUnauthenticated) {
				t.Error("should match ErrUnauthenticated")
			}
			if !errors.Is(tt.err, tt.wantCause) {
				t.Errorf("should match %v", tt.wantCause)
			}
			if errors.Is(tt.err, ErrForbidden) {
				t.Error("should not match ErrForbidden")
			}
			if got := tt.err.outcome(); got != tt.wantOutcome {
				t.Errorf("outcome() = %q, want %q", got, tt.wantOutcome)
			}
		})
	}
}

func TestRateLimitedMessage(t *testing.T) {
	err := errRateLimited(time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC), errors.New("full"))
	want := "Rate limit exceeded. Try again after 2026-01-02T03:04:05.006Z"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAuthzError(t *testing.T) {
	cause := errors.New("underlying")
	err := &AuthzError{
		ClientID: "client_12345678",
		Resource: "users",
		Action:   "delete",
		Reason:   "nope",
		Cause:    cause,
	}

	want := `authorization denied: client="client_12345678" resource="users" action="delete" reason="nope"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrForbidden) {
		t.Error("should match ErrForbidden")
	}
	if !errors.Is(err, cause) {
		t.Error("should unwrap to cause")
	}
	var target *AuthzError
	if !errors.As(error(err), &target) {
		t.Error("errors.As should find *AuthzError")
	}
}
