package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/firebase-mcp/auth"
	"github.com/jonwraymond/firebase-mcp/health"
	"github.com/jonwraymond/firebase-mcp/observe"
)

// Environment names the deployment type.
type Environment string

// Environments.
const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the complete server configuration.
type Config struct {
	Server      ServerConfig              `yaml:"server"`
	Firebase    FirebaseConfig            `yaml:"firebase"`
	Auth        auth.Config               `yaml:"auth"`
	Permissions PermissionsConfig         `yaml:"permissions"`
	Observe     observe.Config            `yaml:"observe"`
	Health      HealthConfig              `yaml:"health"`
	Secrets     map[string]map[string]any `yaml:"secrets"`
}

// ServerConfig identifies the server.
type ServerConfig struct {
	// Name is reported to clients and used as the telemetry service name.
	// Default: firebase-mcp-server
	Name string `yaml:"name"`

	// Version is reported to clients.
	// Default: 1.0.0
	Version string `yaml:"version"`

	// Environment is development, production or test.
	// Default: development
	Environment Environment `yaml:"environment"`
}

// FirebaseConfig locates the Firebase project the tools act on.
type FirebaseConfig struct {
	ProjectID             string `yaml:"project_id"`
	ServiceAccountKeyPath string `yaml:"service_account_key_path"`
}

// HealthConfig configures health check aggregation.
type HealthConfig struct {
	// Timeout bounds each check.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// Concurrency caps the checks run at once. Zero means no cap.
	Concurrency int `yaml:"concurrency"`
}

// Aggregator returns the health.AggregatorConfig for h.
func (h HealthConfig) Aggregator() health.AggregatorConfig {
	return health.AggregatorConfig{Timeout: h.Timeout, Concurrency: h.Concurrency}
}

// Default returns the configuration used for every key the file and the
// environment leave unset.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:        "firebase-mcp-server",
			Version:     "1.0.0",
			Environment: Development,
		},
		Auth:        auth.DefaultConfig(),
		Permissions: PermissionsConfig{LoadDefaults: true},
		Observe: observe.Config{
			Logging: observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Health: HealthConfig{Timeout: 5 * time.Second},
	}
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool { return c.Server.Environment == Production }

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return ErrMissingServerName
	}
	if !slices.Contains([]Environment{Development, Production, Test}, c.Server.Environment) {
		return fmt.Errorf("%w: %q", ErrInvalidEnvironment, c.Server.Environment)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	if err := c.Permissions.Validate(); err != nil {
		return fmt.Errorf("permissions: %w", err)
	}
	return nil
}
