package auth

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func tokenConfig() Config {
	cfg := enabledConfig("static-key")
	cfg.Token = TokenConfig{Secret: testSecret, Issuer: "firebase-mcp", Audience: "tools"}
	return cfg
}

func TestAuthenticate_JWT(t *testing.T) {
	clock := newTestClock()
	m := newTestMiddleware(t, tokenConfig(), WithClock(clock.Now))
	ctx := context.Background()

	valid := jwt.MapClaims{
		"sub":         "svc-deployer",
		"iss":         "firebase-mcp",
		"aud":         "tools",
		"exp":         clock.Now().Add(time.Hour).Unix(),
		"permissions": []string{"deploy:*", "read"},
	}

	tests := []struct {
		name      string
		token     string
		wantErr   error
		wantPerms []string
	}{
		{
			name:      "valid",
			token:     signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid),
			wantPerms: []string{"deploy:*", "read"},
		},
		{
			name: "space separated scope claim",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"iss": "firebase-mcp", "aud": "tools", "permissions": "a b",
			}),
			wantPerms: []string{"a", "b"},
		},
		{
			name: "no permissions claim",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"iss": "firebase-mcp", "aud": "tools",
			}),
			wantPerms: []string{"read"},
		},
		{
			name: "expired",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"iss": "firebase-mcp", "aud": "tools", "exp": clock.Now().Add(-time.Minute).Unix(),
			}),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("other"), valid),
			wantErr: ErrTokenMalformed,
		},
		{
			name:    "wrong algorithm",
			token:   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), valid),
			wantErr: ErrTokenMalformed,
		},
		{
			name: "wrong issuer",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"iss": "someone-else", "aud": "tools",
			}),
			wantErr: ErrTokenMalformed,
		},
		{
			name: "wrong audience",
			token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"iss": "firebase-mcp", "aud": "other",
			}),
			wantErr: ErrTokenMalformed,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac, err := m.Authenticate(ctx, bearer(tt.token))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidAPIKey) {
					t.Fatalf("Authenticate() error = %v, want %v and ErrInvalidAPIKey", err, tt.wantErr)
				}
				if err.Error() != "Invalid API key" {
					t.Errorf("Error() = %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if ac.Method != MethodJWT {
				t.Errorf("Method = %q, want jwt", ac.Method)
			}
			if !slices.Equal(ac.Permissions, tt.wantPerms) {
				t.Errorf("Permissions = %v, want %v", ac.Permissions, tt.wantPerms)
			}
		})
	}
}

func TestAuthenticate_JWTSubjectAndRateLimit(t *testing.T) {
	clock := newTestClock()
	cfg := tokenConfig()
	cfg.RateLimit.MaxRequests = 1
	m := newTestMiddleware(t, cfg, WithClock(clock.Now))
	ctx := context.Background()

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "svc-deployer", "iss": "firebase-mcp", "aud": "tools",
	})

	ac, err := m.Authenticate(ctx, bearer(token))
	if err != nil {
		t.Fatal(err)
	}
	if ac.Subject != "svc-deployer" {
		t.Errorf("Subject = %q", ac.Subject)
	}
	if ac.ClientID != ClientID(token) {
		t.Errorf("ClientID = %q, want %q", ac.ClientID, ClientID(token))
	}

	if _, err := m.Authenticate(ctx, bearer(token)); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second call error = %v, want ErrRateLimited", err)
	}
}

func TestAuthenticate_JWTOnlyForBearer(t *testing.T) {
	m := newTestMiddleware(t, tokenConfig())
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"iss": "firebase-mcp", "aud": "tools",
	})

	_, err := m.Authenticate(context.Background(), map[string][]string{"X-API-Key": {token}})
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("Authenticate() error = %v, want ErrInvalidAPIKey", err)
	}
	if errors.Is(err, ErrTokenMalformed) {
		t.Error("X-API-Key credential was verified as a token")
	}
}

func TestAuthenticate_APIKeyPreferredOverToken(t *testing.T) {
	m := newTestMiddleware(t, tokenConfig())

	ac, err := m.Authenticate(context.Background(), bearer("static-key"))
	if err != nil {
		t.Fatal(err)
	}
	if ac.Method != MethodAPIKey {
		t.Errorf("Method = %q, want api_key", ac.Method)
	}
}

func TestTokenConfig_Enabled(t *testing.T) {
	if (TokenConfig{}).Enabled() {
		t.Error("empty TokenConfig should be disabled")
	}
	if !(TokenConfig{Secret: "s"}).Enabled() {
		t.Error("TokenConfig with secret should be enabled")
	}
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   []string
		wantOK bool
	}{
		{"json array", []any{"a", 1, "b"}, []string{"a", "b"}, true},
		{"string", "  a  b ", []string{"a", "b"}, true},
		{"number", 3.0, nil, false},
		{"missing", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stringSlice(tt.in)
			if ok != tt.wantOK || !slices.Equal(got, tt.want) {
				t.Errorf("stringSlice(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
