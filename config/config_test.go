package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/jonwraymond/firebase-mcp/auth"
	"github.com/jonwraymond/firebase-mcp/observe"
	"github.com/jonwraymond/firebase-mcp/permission"
	"github.com/jonwraymond/firebase-mcp/secret"
)

// unsetEnv clears name for the duration of the test, restoring it afterwards.
func unsetEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("Unsetenv(%s) error = %v", name, err)
		}
	}
}

func clearOverrides(t *testing.T) {
	t.Helper()
	unsetEnv(t, EnvServerName, EnvServerVersion, EnvEnvironment, EnvLogLevel,
		EnvAuthEnabled, EnvAPIKeys, EnvProjectID, EnvServiceAccount)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Name != "firebase-mcp-server" {
		t.Errorf("Server.Name = %q", cfg.Server.Name)
	}
	if cfg.Server.Version != "1.0.0" {
		t.Errorf("Server.Version = %q", cfg.Server.Version)
	}
	if cfg.Server.Environment != Development {
		t.Errorf("Server.Environment = %q, want %q", cfg.Server.Environment, Development)
	}
	if cfg.Auth.Enabled {
		t.Error("Auth.Enabled should default to false")
	}
	if !slices.Equal(cfg.Auth.AllowedOrigins, []string{"*"}) {
		t.Errorf("Auth.AllowedOrigins = %v, want [*]", cfg.Auth.AllowedOrigins)
	}
	if cfg.Auth.RateLimit.MaxRequests != 100 || cfg.Auth.RateLimit.Window != time.Minute {
		t.Errorf("Auth.RateLimit = %+v, want 100 per minute", cfg.Auth.RateLimit)
	}
	if !cfg.Permissions.LoadDefaults {
		t.Error("Permissions.LoadDefaults should default to true")
	}
	if cfg.Health.Timeout != 5*time.Second {
		t.Errorf("Health.Timeout = %v, want 5s", cfg.Health.Timeout)
	}
}

func TestParse_Empty(t *testing.T) {
	clearOverrides(t)

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Observe.ServiceName != "firebase-mcp-server" || cfg.Observe.Version != "1.0.0" {
		t.Errorf("Observe = %q %q, want server name and version", cfg.Observe.ServiceName, cfg.Observe.Version)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_File(t *testing.T) {
	clearOverrides(t)
	t.Setenv("TEST_MCP_ORIGIN", "https://console.example.com")

	cfg, err := Parse([]byte(`
server:
  name: firebase-mcp-prod
  environment: production
firebase:
  project_id: demo-project
auth:
  enabled: true
  api_keys: [key-a, key-b]
  allowed_origins: ["${TEST_MCP_ORIGIN}", "https://*.example.com*"]
  rate_limit:
    enabled: true
    max_requests: 10
    window: 30s
  permissions:
    key-a: ["read:*", "write:firestore"]
observe:
  logging:
    enabled: true
    level: debug
health:
  timeout: 2s
  concurrency: 4
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Server.Name != "firebase-mcp-prod" {
		t.Errorf("Server.Name = %q", cfg.Server.Name)
	}
	if cfg.Server.Version != "1.0.0" {
		t.Errorf("Server.Version = %q, unset keys should keep defaults", cfg.Server.Version)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false")
	}
	if cfg.Firebase.ProjectID != "demo-project" {
		t.Errorf("Firebase.ProjectID = %q", cfg.Firebase.ProjectID)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false")
	}
	if !slices.Equal(cfg.Auth.APIKeys, []string{"key-a", "key-b"}) {
		t.Errorf("Auth.APIKeys = %v", cfg.Auth.APIKeys)
	}
	wantOrigins := []string{"https://console.example.com", "https://*.example.com*"}
	if !slices.Equal(cfg.Auth.AllowedOrigins, wantOrigins) {
		t.Errorf("Auth.AllowedOrigins = %v, want %v", cfg.Auth.AllowedOrigins, wantOrigins)
	}
	if cfg.Auth.RateLimit.MaxRequests != 10 || cfg.Auth.RateLimit.Window != 30*time.Second {
		t.Errorf("Auth.RateLimit = %+v", cfg.Auth.RateLimit)
	}
	if !slices.Equal(cfg.Auth.Permissions["key-a"], []string{"read:*", "write:firestore"}) {
		t.Errorf("Auth.Permissions[key-a] = %v", cfg.Auth.Permissions["key-a"])
	}
	if cfg.Observe.Logging.Level != "debug" {
		t.Errorf("Observe.Logging.Level = %q", cfg.Observe.Logging.Level)
	}
	if cfg.Observe.ServiceName != "firebase-mcp-prod" {
		t.Errorf("Observe.ServiceName = %q", cfg.Observe.ServiceName)
	}
	agg := cfg.Health.Aggregator()
	if agg.Timeout != 2*time.Second || agg.Concurrency != 4 {
		t.Errorf("Health.Aggregator() = %+v", agg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_RateLimit(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{name: "unset keeps default", yaml: "auth:\n  rate_limit:\n    window: 10s\n", want: 100},
		{name: "zero is kept", yaml: "auth:\n  rate_limit:\n    max_requests: 0\n", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearOverrides(t)
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := cfg.Auth.RateLimit.MaxRequests; got != tt.want {
				t.Errorf("MaxRequests = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_MissingEnvReference(t *testing.T) {
	unsetEnv(t, "TEST_MCP_UNSET")

	_, err := Parse([]byte("auth:\n  api_keys: [\"${TEST_MCP_UNSET}\"]\n"))
	if !errors.Is(err, secret.ErrMissingEnv) {
		t.Errorf("Parse() error = %v, want ErrMissingEnv", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	clearOverrides(t)

	_, err := Parse([]byte("auth: [unclosed"))
	if !errors.Is(err, ErrParseConfig) {
		t.Errorf("Parse() error = %v, want ErrParseConfig", err)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvServerName, "from-env")
	t.Setenv(EnvEnvironment, "test")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvAuthEnabled, "true")
	t.Setenv(EnvAPIKeys, " k1, ,k2 ")
	t.Setenv(EnvProjectID, "env-project")

	cfg, err := Parse([]byte("server:\n  name: from-file\nauth:\n  api_keys: [file-key]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Server.Name != "from-env" {
		t.Errorf("Server.Name = %q, want from-env", cfg.Server.Name)
	}
	if cfg.Server.Environment != Test {
		t.Errorf("Server.Environment = %q, want %q", cfg.Server.Environment, Test)
	}
	if cfg.Observe.Logging.Level != "warn" {
		t.Errorf("Observe.Logging.Level = %q, want warn", cfg.Observe.Logging.Level)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if !slices.Equal(cfg.Auth.APIKeys, []string{"k1", "k2"}) {
		t.Errorf("Auth.APIKeys = %v, want [k1 k2]", cfg.Auth.APIKeys)
	}
	if cfg.Firebase.ProjectID != "env-project" {
		t.Errorf("Firebase.ProjectID = %q", cfg.Firebase.ProjectID)
	}
}

func TestParse_InvalidAuthEnabled(t *testing.T) {
	clearOverrides(t)
	t.Setenv(EnvAuthEnabled, "sometimes")

	_, err := Parse(nil)
	if !errors.Is(err, ErrInvalidEnv) {
		t.Errorf("Parse() error = %v, want ErrInvalidEnv", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"no server name", func(c *Config) { c.Server.Name = "" }, ErrMissingServerName},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }, ErrInvalidEnvironment},
		{"auth without keys", func(c *Config) { c.Auth.Enabled = true }, auth.ErrNoAPIKeys},
		{"negative rate limit", func(c *Config) { c.Auth.RateLimit.MaxRequests = -1 }, auth.ErrInvalidRateLimit},
		{"bad log level", func(c *Config) { c.Observe.Logging.Level = "loud" }, observe.ErrInvalidLogLevel},
		{"bad condition", func(c *Config) {
			c.Permissions.Permissions = []PermissionSpec{{
				Resource: "firestore", Action: "read",
				Conditions: []permission.ConditionSpec{{Type: "moon"}},
			}}
		}, permission.ErrInvalidCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Observe.ServiceName = cfg.Server.Name
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	clearOverrides(t)
	unsetEnv(t, "TEST_MCP_DOTENV_KEY", "TEST_MCP_SIGNING")
	dir := t.TempDir()

	envFile := writeFile(t, dir, ".env", "TEST_MCP_DOTENV_KEY=dotenv-key\nTEST_MCP_SIGNING=signing-secret\n")
	keyFile := writeFile(t, dir, "admin.key", "file-key\n")
	path := writeFile(t, dir, "config.yaml", `
auth:
  enabled: true
  api_keys:
    - plain-key
    - secretref:env:TEST_MCP_DOTENV_KEY
    - secretref:file:`+keyFile+`
  permissions:
    secretref:file:`+keyFile+`: ["admin"]
  token:
    secret: secretref:env:TEST_MCP_SIGNING
`)

	cfg, err := Load(context.Background(), path, WithEnvFiles(envFile, filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantKeys := []string{"plain-key", "dotenv-key", "file-key"}
	if !slices.Equal(cfg.Auth.APIKeys, wantKeys) {
		t.Errorf("Auth.APIKeys = %v, want %v", cfg.Auth.APIKeys, wantKeys)
	}
	wantPerms := map[string][]string{"file-key": {"admin"}}
	if !reflect.DeepEqual(cfg.Auth.Permissions, wantPerms) {
		t.Errorf("Auth.Permissions = %v, want %v", cfg.Auth.Permissions, wantPerms)
	}
	if cfg.Auth.Token.Secret != "signing-secret" {
		t.Errorf("Auth.Token.Secret = %q", cfg.Auth.Token.Secret)
	}
}

func TestLoad_ProcessEnvWinsOverDotenv(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", EnvServerName+"=from-dotenv\n")
	t.Setenv(EnvServerName, "from-process")

	cfg, err := Load(context.Background(), "", WithEnvFiles(envFile))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Name != "from-process" {
		t.Errorf("Server.Name = %q, want from-process", cfg.Server.Name)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearOverrides(t)
	unsetEnv(t, "TEST_MCP_ABSENT")
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "nope.yaml"),
			wantErr: ErrReadConfig,
		},
		{
			name:    "missing secret",
			path:    writeFile(t, dir, "ref.yaml", "auth:\n  api_keys:\n    - secretref:env:TEST_MCP_ABSENT\n"),
			wantErr: secret.ErrNotFound,
		},
		{
			name:    "unknown provider",
			path:    writeFile(t, dir, "vault.yaml", "auth:\n  api_keys:\n    - secretref:vault:kv/key\n"),
			wantErr: secret.ErrUnknownProvider,
		},
		{
			name:    "invalid config",
			path:    writeFile(t, dir, "invalid.yaml", "auth:\n  enabled: true\n"),
			wantErr: auth.ErrNoAPIKeys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.path, WithEnvFiles())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_SecretProviders(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	writeFile(t, dir, "k", "scoped-key")
	path := writeFile(t, dir, "config.yaml", `
secrets:
  file:
    base_dir: `+dir+`
auth:
  api_keys: ["secretref:file:k"]
`)

	cfg, err := Load(context.Background(), path, WithEnvFiles())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(cfg.Auth.APIKeys, []string{"scoped-key"}) {
		t.Errorf("Auth.APIKeys = %v, want [scoped-key]", cfg.Auth.APIKeys)
	}

	escape := writeFile(t, dir, "escape.yaml", `
secrets:
  file:
    base_dir: `+dir+`
auth:
  api_keys: ["secretref:file:../etc/passwd"]
`)
	if _, err := Load(context.Background(), escape, WithEnvFiles()); err == nil {
		t.Error("Load() with a path outside base_dir succeeded")
	}
}
