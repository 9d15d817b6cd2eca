package gateway

import (
	"context"
	"errors"

	"github.com/jonwraymond/firebase-mcp/auth"
	"github.com/jonwraymond/firebase-mcp/health"
	"github.com/jonwraymond/firebase-mcp/permission"
)

// ErrSweepStopped indicates the rate-limit sweep of an enabled middleware is
// not running.
var ErrSweepStopped = errors.New("gateway: rate-limit sweep is not running")

// AuthHealthCheck reports the auth middleware's rate-limiter state. It is
// unhealthy when authentication and rate limiting are enabled but the sweep
// has stopped, which lets expired windows accumulate.
func AuthHealthCheck(mw *auth.Middleware) health.Checker {
	return health.NewCheckerFunc("auth", func(context.Context) health.Result {
		cfg := mw.Config()
		stats := mw.Stats()
		details := map[string]any{
			"enabled":               cfg.Enabled,
			"rate_limit_enabled":    cfg.RateLimit.Enabled,
			"api_keys":              len(cfg.APIKeys),
			"active_clients":        stats.ActiveClients,
			"total_requests":        stats.TotalRequests,
			"rate_limited_requests": stats.RateLimitedRequests,
			"sweep_running":         mw.SweepRunning(),
		}

		switch {
		case !cfg.Enabled:
			return health.Degraded("authentication disabled").WithDetails(details)
		case cfg.RateLimit.Enabled && !mw.SweepRunning():
			return health.Unhealthy("rate-limit sweep stopped", ErrSweepStopped).WithDetails(details)
		default:
			return health.Healthy("authentication enabled").WithDetails(details)
		}
	})
}

// PermissionsHealthCheck reports the size of the resolver's catalogue. It is
// degraded when no roles are defined.
func PermissionsHealthCheck(r *permission.Resolver) health.Checker {
	return health.NewCheckerFunc("permissions", func(context.Context) health.Result {
		roles, perms, users := r.Store().Len()
		details := map[string]any{
			"roles":       roles,
			"permissions": perms,
			"users":       users,
		}
		if roles == 0 {
			return health.Degraded("no roles defined").WithDetails(details)
		}
		return health.Healthy("permission catalogue loaded").WithDetails(details)
	})
}

// NewHealth returns an aggregator with the auth and permissions checks
// registered. A nil resolver skips the permissions check.
func NewHealth(mw *auth.Middleware, r *permission.Resolver, cfg health.AggregatorConfig) *health.Aggregator {
	agg := health.NewAggregator(cfg)
	agg.Register(AuthHealthCheck(mw))
	if r != nil {
		agg.Register(PermissionsHealthCheck(r))
	}
	return agg
}
