package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/firebase-mcp/resilience"
)

// Config configures a Middleware.
type Config struct {
	// Enabled turns authentication on. When false every request is admitted
	// with the "*" permission.
	Enabled bool `yaml:"enabled"`

	// APIKeys are the accepted credentials.
	APIKeys []string `yaml:"api_keys"`

	// AllowedOrigins restricts the Origin (or Referer) of requests that carry
	// one. Entries are "*", a prefix ending in "*", or an exact origin. An
	// empty list admits every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// RateLimit configures the per-credential request window.
	RateLimit resilience.WindowConfig `yaml:"rate_limit"`

	// Permissions maps a credential to its permission strings. Credentials
	// without an entry get DefaultPermissions.
	Permissions map[string][]string `yaml:"permissions"`

	// Token enables signed bearer tokens as an alternative to API keys.
	Token TokenConfig `yaml:"token"`
}

// DefaultPermissions is granted to credentials with no Permissions entry.
var DefaultPermissions = []string{"read"}

// DefaultConfig returns the development defaults: authentication off, every
// origin allowed, 100 requests per minute per credential.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		APIKeys:        []string{},
		AllowedOrigins: []string{"*"},
		RateLimit: resilience.WindowConfig{
			Enabled:     true,
			MaxRequests: 100,
			Window:      time.Minute,
		},
		Permissions: map[string][]string{},
	}
}

// Config errors.
var (
	ErrNoAPIKeys          = errors.New("auth: enabled without API keys or token secret")
	ErrInvalidRateLimit   = errors.New("auth: invalid rate limit")
	ErrUnknownPermissions = errors.New("auth: permissions for unknown API key")
)

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.RateLimit.MaxRequests < 0 || c.RateLimit.Window < 0 {
		return fmt.Errorf("%w: max_requests=%d window=%s",
			ErrInvalidRateLimit, c.RateLimit.MaxRequests, c.RateLimit.Window)
	}
	if !c.Enabled {
		return nil
	}
	if len(c.APIKeys) == 0 && c.Token.Secret == "" {
		return ErrNoAPIKeys
	}
	for key := range c.Permissions {
		if !containsString(c.APIKeys, key) {
			return fmt.Errorf("%w: client %s", ErrUnknownPermissions, ClientID(key))
		}
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
