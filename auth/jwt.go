package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig enables HS256-signed bearer tokens. A bearer credential that is
// not a configured API key is verified as a token when Secret is set.
type TokenConfig struct {
	// Secret is the HMAC signing key. Empty disables tokens.
	Secret string `yaml:"secret"`

	// Issuer is the expected token issuer (iss claim).
	Issuer string `yaml:"issuer"`

	// Audience is the expected token audience (aud claim).
	Audience string `yaml:"audience"`

	// PermissionsClaim is the claim listing the token's permission strings.
	// Default: "permissions"
	PermissionsClaim string `yaml:"permissions_claim"`

	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration `yaml:"leeway"`
}

// Enabled reports whether token verification is configured.
func (c TokenConfig) Enabled() bool {
	return c.Secret != ""
}

// tokenClaims is what a verified token contributes to an AuthContext.
type tokenClaims struct {
	Subject     string
	Permissions []string
	ExpiresAt   time.Time
}

// tokenVerifier validates signed bearer tokens.
type tokenVerifier struct {
	config TokenConfig
	parser *jwt.Parser
	now    func() time.Time
}

func newTokenVerifier(config TokenConfig, now func() time.Time) *tokenVerifier {
	if config.PermissionsClaim == "" {
		config.PermissionsClaim = "permissions"
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &tokenVerifier{
		config: config,
		parser: jwt.NewParser(opts...),
		now:    now,
	}
}

// verify parses and validates raw, returning its claims.
func (v *tokenVerifier) verify(raw string) (*tokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(v.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	out := &tokenClaims{Permissions: DefaultPermissions}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if perms, ok := stringSlice(claims[v.config.PermissionsClaim]); ok {
		out.Permissions = perms
	}
	return out, nil
}

// stringSlice converts a JSON array claim or a space-separated string claim
// into a slice.
func stringSlice(v any) ([]string, bool) {
	switch v := v.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		return strings.Fields(v), true
	default:
		return nil, false
	}
}
