package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/firebase-mcp/auth"
	"github.com/jonwraymond/firebase-mcp/config"
	"github.com/jonwraymond/firebase-mcp/health"
	"github.com/jonwraymond/firebase-mcp/observe"
	"github.com/jonwraymond/firebase-mcp/permission"
)

// Gateway holds the access-control components built from one Config.
//
// Contract:
// - Lifecycle: Open starts the rate-limit sweep and telemetry providers;
// Close stops them.
// - Concurrency: every component is safe for concurrent use.
type Gateway struct {
	Config   config.Config
	Observer observe.Observer
	Auth     *auth.Middleware
	Resolver *permission.Resolver
	Guard    *Guard
	Health   *health.Aggregator
}

// Open builds a Gateway from cfg. Extra guard options are applied after the
// ones Open sets.
func Open(ctx context.Context, cfg config.Config, opts ...GuardOption) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("gateway: observer: %w", err)
	}
	logger := obs.Logger()

	access, err := observe.NewAccessMetrics(obs.Meter())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("gateway: access metrics: %w", err), obs.Shutdown(ctx))
	}
	exec, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("gateway: execution middleware: %w", err), obs.Shutdown(ctx))
	}

	resolver := permission.NewResolver(permission.WithLogger(logger))
	if err := cfg.Permissions.Apply(ctx, resolver); err != nil {
		return nil, errors.Join(fmt.Errorf("gateway: permissions: %w", err), obs.Shutdown(ctx))
	}

	mw := auth.NewMiddleware(cfg.Auth, auth.WithLogger(logger), auth.WithAccessMetrics(access))

	guardOpts := append([]GuardOption{
		WithExecution(exec),
		WithGuardLogger(logger),
		WithResolver(resolver),
		WithPublicTools("ping"),
	}, opts...)

	g := &Gateway{
		Config:   cfg,
		Observer: obs,
		Auth:     mw,
		Resolver: resolver,
		Guard:    NewGuard(mw, guardOpts...),
		Health:   NewHealth(mw, resolver, cfg.Health.Aggregator()),
	}

	roles, perms, users := resolver.Store().Len()
	logger.Info(ctx, "gateway ready",
		observe.F("server", cfg.Server.Name),
		observe.F("environment", string(cfg.Server.Environment)),
		observe.F("auth_enabled", cfg.Auth.Enabled),
		observe.F("roles", roles),
		observe.F("permissions", perms),
		observe.F("users", users),
	)
	return g, nil
}

// Call runs a tool handler through the guard.
func (g *Gateway) Call(ctx context.Context, tool string, headers map[string][]string, input any, next observe.ExecuteFunc) (any, error) {
	return g.Guard.Call(ctx, tool, headers, input, next)
}

// CheckPermissions runs the permission-check audit against the gateway's
// resolver.
func (g *Gateway) CheckPermissions(ctx context.Context, userID, action, resource string) (PermissionReport, error) {
	return CheckPermissions(ctx, g.Resolver, userID, action, resource)
}

// Close stops the rate-limit sweep and flushes telemetry.
func (g *Gateway) Close(ctx context.Context) error {
	return errors.Join(g.Auth.Close(), g.Observer.Shutdown(ctx))
}
