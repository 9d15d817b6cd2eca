package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/firebase-mcp/observe"
	"github.com/jonwraymond/firebase-mcp/resilience"
)

// Middleware authenticates requests and authorizes their actions.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: NewMiddleware starts the rate-limit sweep; Close stops it.
// - Errors: Authenticate returns *AuthenticationError; Authorize never errors.
type Middleware struct {
	config  Config
	keys    keyring
	tokens  *tokenVerifier
	limiter *resilience.WindowLimiter

	logger  observe.Logger
	metrics observe.AccessMetrics
	now     func() time.Time

	closeOnce sync.Once
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger. Defaults to observe.NopLogger().
func WithLogger(l observe.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithAccessMetrics sets the decision counters. Defaults to observe.NopAccessMetrics().
func WithAccessMetrics(am observe.AccessMetrics) Option {
	return func(m *Middleware) {
		if am != nil {
			m.metrics = am
		}
	}
}

// WithClock overrides the time source used for rate limiting and tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMiddleware creates a Middleware from config and starts its rate-limit
// sweep. Call Close to stop it.
func NewMiddleware(config Config, opts ...Option) *Middleware {
	m := &Middleware{
		config:  config,
		keys:    newKeyring(config.APIKeys),
		logger:  observe.NopLogger(),
		metrics: observe.NopAccessMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(observe.F("component", "auth"))

	m.limiter = resilience.NewWindowLimiter(config.RateLimit, resilience.WithClock(m.now))
	m.config.RateLimit = m.limiter.Config()
	if config.Token.Enabled() {
		m.tokens = newTokenVerifier(config.Token, m.now)
	}
	if config.Enabled && config.RateLimit.Enabled {
		m.limiter.Start(context.Background())
	}
	return m
}

// Config returns the effective configuration, defaults applied.
func (m *Middleware) Config() Config {
	return m.config
}

// Close stops the rate-limit sweep. It is safe to call more than once.
func (m *Middleware) Close() error {
	m.closeOnce.Do(m.limiter.Stop)
	return nil
}

// Authenticate validates the credential in headers. Checks run in order:
// credential present, credential known, origin allowed, rate limit. The first
// failure is returned as an *AuthenticationError.
func (m *Middleware) Authenticate(ctx context.Context, headers map[string][]string) (*AuthContext, error) {
	if !m.config.Enabled {
		return &AuthContext{
			Authenticated: true,
			Permissions:   []string{"*"},
			Method:        MethodNone,
		}, nil
	}

	ac, err := m.authenticate(ctx, headers)
	if err != nil {
		var authErr *AuthenticationError
		outcome := "error"
		if errors.As(err, &authErr) {
			outcome = authErr.outcome()
		}
		m.logger.Warn(ctx, "authentication failed", observe.F("error", err))
		m.metrics.RecordAuthentication(ctx, methodLabel(ac), outcome)
		return nil, err
	}

	m.logger.Debug(ctx, "authentication successful",
		observe.F("client.id", ac.ClientID),
		observe.F("method", string(ac.Method)),
		observe.F("permissions", ac.Permissions),
	)
	m.metrics.RecordAuthentication(ctx, string(ac.Method), "success")
	return ac, nil
}

// AuthenticateContext authenticates the headers stored in ctx by WithHeaders
// or WithAuthHeaders.
func (m *Middleware) AuthenticateContext(ctx context.Context) (*AuthContext, error) {
	return m.Authenticate(ctx, HeadersFromContext(ctx))
}

// authenticate returns a partial AuthContext alongside an error once the
// method is known, so failures can be labelled.
func (m *Middleware) authenticate(ctx context.Context, headers map[string][]string) (*AuthContext, error) {
	cred, ok := extractCredential(headers)
	if !ok {
		return nil, errMissingAPIKey()
	}

	ac := &AuthContext{
		Authenticated: true,
		APIKey:        cred.value,
		ClientID:      ClientID(cred.value),
		Method:        MethodAPIKey,
	}

	switch {
	case m.keys.contains(cred.value):
		perms, ok := m.config.Permissions[cred.value]
		if !ok {
			perms = DefaultPermissions
		}
		ac.Permissions = append([]string(nil), perms...)
	case cred.bearer && m.tokens != nil:
		ac.Method = MethodJWT
		claims, err := m.tokens.verify(cred.value)
		if err != nil {
			return ac, errInvalidAPIKey(err)
		}
		ac.Subject = claims.Subject
		ac.Permissions = append([]string(nil), claims.Permissions...)
	default:
		return ac, errInvalidAPIKey(nil)
	}

	if origin := requestOrigin(headers); origin != "" && len(m.config.AllowedOrigins) > 0 {
		if !originAllowed(m.config.AllowedOrigins, origin) {
			return ac, errOriginNotAllowed()
		}
	}

	quota, err := m.limiter.Take(cred.value)
	if err != nil {
		m.metrics.RecordRateLimited(ctx, ac.ClientID)
		return ac, errRateLimited(quota.ResetAt, err)
	}
	ac.RateLimit = &RateLimitInfo{Remaining: quota.Remaining, ResetAt: quota.ResetAt}
	return ac, nil
}

func methodLabel(ac *AuthContext) string {
	if ac == nil {
		return "unknown"
	}
	return string(ac.Method)
}

// Stats is a snapshot of authentication state.
type Stats struct {
	// ActiveClients is the number of credentials with an open rate-limit window.
	ActiveClients int

	// TotalRequests sums the requests admitted in the open windows only.
	TotalRequests int

	// RateLimitedRequests is not tracked and is always 0. Rejections are
	// counted by the auth.ratelimit.rejected metric.
	RateLimitedRequests int
}

// Stats returns a snapshot of the rate limiter.
func (m *Middleware) Stats() Stats {
	s := m.limiter.Stats()
	return Stats{
		ActiveClients:       s.ActiveKeys,
		TotalRequests:       s.Requests,
		RateLimitedRequests: s.Rejected,
	}
}

// SweepRunning reports whether the background rate-limit sweep is active.
func (m *Middleware) SweepRunning() bool {
	return m.limiter.Running()
}

func formatResetAt(t time.Time) string {
	return t.UTC().Format(resilience.ResetLayout)
}
