package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/firebase-mcp/secret"
)

// Environment variables that override file values.
const (
	EnvServerName     = "MCP_SERVER_NAME"
	EnvServerVersion  = "MCP_SERVER_VERSION"
	EnvEnvironment    = "MCP_ENVIRONMENT"
	EnvLogLevel       = "MCP_LOG_LEVEL"
	EnvAuthEnabled    = "MCP_AUTH_ENABLED"
	EnvAPIKeys        = "MCP_API_KEYS"
	EnvProjectID      = "FIREBASE_PROJECT_ID"
	EnvServiceAccount = "FIREBASE_SERVICE_ACCOUNT_KEY_PATH"
)

type loadOptions struct {
	envFiles []string
	registry *secret.Registry
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithEnvFiles sets the dotenv files read before the config file. Missing
// files are skipped. Default: ".env"
func WithEnvFiles(files ...string) LoadOption {
	return func(o *loadOptions) {
		o.envFiles = files
	}
}

// WithSecretRegistry sets the registry secret providers are built from.
// Default: secret.DefaultRegistry
func WithSecretRegistry(r *secret.Registry) LoadOption {
	return func(o *loadOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// defaultSecrets is used when the file configures no secret providers.
var defaultSecrets = map[string]map[string]any{"env": {}, "file": {}}

// Load builds the configuration. Values already in the process environment
// win over dotenv files. An empty path skips the YAML file.
func Load(ctx context.Context, path string, opts ...LoadOption) (Config, error) {
	o := loadOptions{envFiles: []string{".env"}, registry: secret.DefaultRegistry}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadEnvFiles(o.envFiles); err != nil {
		return Config{}, err
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	if err := resolveSecrets(ctx, &cfg, o.registry); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse builds a configuration from YAML data without resolving secrets or
// validating. ${VAR} references are expanded first and must all be set.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if cfg.Observe.ServiceName == "" {
		cfg.Observe.ServiceName = cfg.Server.Name
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = cfg.Server.Version
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReadConfig, f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(EnvServerName, &cfg.Server.Name)
	set(EnvServerVersion, &cfg.Server.Version)
	set(EnvProjectID, &cfg.Firebase.ProjectID)
	set(EnvServiceAccount, &cfg.Firebase.ServiceAccountKeyPath)
	set(EnvLogLevel, &cfg.Observe.Logging.Level)

	if v, ok := lookup(EnvEnvironment); ok && v != "" {
		cfg.Server.Environment = Environment(v)
	}

	if v, ok := lookup(EnvAuthEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvAuthEnabled, v)
		}
		cfg.Auth.Enabled = enabled
	}

	if v, ok := lookup(EnvAPIKeys); ok && v != "" {
		var keys []string
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		cfg.Auth.APIKeys = keys
	}
	return nil
}

// resolveSecrets replaces secret references in the API keys, the keys of
// the permission map and the token secret. Values without a reference are
// left as they are.
func resolveSecrets(ctx context.Context, cfg *Config, registry *secret.Registry) error {
	cfgs := cfg.Secrets
	if len(cfgs) == 0 {
		cfgs = defaultSecrets
	}
	providers, err := registry.Build(cfgs)
	if err != nil {
		return err
	}
	r := secret.NewResolver(true, providers...)
	defer func() { _ = r.Close() }()

	resolve := func(v string) (string, error) {
		if !secret.IsSecretRef(v) {
			return v, nil
		}
		return r.ResolveValue(ctx, v)
	}

	for i, key := range cfg.Auth.APIKeys {
		resolved, err := resolve(key)
		if err != nil {
			return fmt.Errorf("auth.api_keys[%d]: %w", i, err)
		}
		cfg.Auth.APIKeys[i] = resolved
	}

	if len(cfg.Auth.Permissions) > 0 {
		perms := make(map[string][]string, len(cfg.Auth.Permissions))
		for key, granted := range cfg.Auth.Permissions {
			resolved, err := resolve(key)
			if err != nil {
				return fmt.Errorf("auth.permissions: %w", err)
			}
			perms[resolved] = granted
		}
		cfg.Auth.Permissions = perms
	}

	s, err := resolve(cfg.Auth.Token.Secret)
	if err != nil {
		return fmt.Errorf("auth.token.secret: %w", err)
	}
	cfg.Auth.Token.Secret = s
	return nil
}
