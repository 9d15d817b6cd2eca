package auth

import (
	"context"
	"time"
)

// Method names how a request was authenticated.
type Method string

// Authentication methods.
const (
	MethodNone   Method = "none" // authentication disabled
	MethodAPIKey Method = "api_key"
	MethodJWT    Method = "jwt"
)

// AuthContext is the outcome of a successful Authenticate call.
type AuthContext struct {
	// Authenticated is true for every AuthContext returned by Authenticate.
	Authenticated bool

	// APIKey is the presented credential. Empty when authentication is disabled.
	APIKey string `json:"-"`

	// Permissions are the permission strings granted to the credential.
	Permissions []string

	// ClientID is the display identifier of the credential.
	ClientID string

	// Subject is the token subject for MethodJWT.
	Subject string

	// RateLimit is the credential's quota after this request.
	RateLimit *RateLimitInfo

	// Method records how the request was authenticated.
	Method Method
}

// RateLimitInfo reports a credential's remaining quota.
type RateLimitInfo struct {
	Remaining int
	ResetAt   time.Time
}

// Context keys for auth-related values.
type contextKey int

const (
	authContextKey contextKey = iota
	headersKey
	remoteAddrKey
)

// WithAuthContext returns a new context carrying ac.
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext retrieves the AuthContext from ctx.
// Returns nil if none is present.
func FromContext(ctx context.Context) *AuthContext {
	ac, _ := ctx.Value(authContextKey).(*AuthContext)
	return ac
}

// ClientIDFromContext returns the client id of the AuthContext in ctx, or
// empty string.
func ClientIDFromContext(ctx context.Context) string {
	if ac := FromContext(ctx); ac != nil {
		return ac.ClientID
	}
	return ""
}

// WithHeaders returns a new context with the given request headers attached.
func WithHeaders(ctx context.Context, headers map[string][]string) context.Context {
	return context.WithValue(ctx, headersKey, headers)
}

// HeadersFromContext retrieves request headers from the context.
// Returns nil if no headers are present.
func HeadersFromContext(ctx context.Context) map[string][]string {
	h, _ := ctx.Value(headersKey).(map[string][]string)
	return h
}

// GetHeader returns the first value of a header stored in ctx, matching the
// name case-insensitively, or empty string.
func GetHeader(ctx context.Context, name string) string {
	return headerValue(HeadersFromContext(ctx), name)
}
