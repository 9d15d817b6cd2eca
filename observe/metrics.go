package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for guarded tool calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordExecution(ctx context.Context, meta ToolMeta, duration time.Duration, err error)
}

// AccessMetrics records the decisions made by the auth layer.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type AccessMetrics interface {
	// RecordAuthentication counts an authentication attempt. outcome is
	// "success" or a short failure reason such as "invalid_key".
	RecordAuthentication(ctx context.Context, method string, outcome string)

	// RecordRateLimited counts a request rejected by the rate limiter.
	RecordRateLimited(ctx context.Context, clientID string)

	// RecordAuthorization counts an authorization decision.
	RecordAuthorization(ctx context.Context, action, resource string, allowed bool)
}

type metricsImpl struct {
	calls    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates execution metrics on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	calls, err := meter.Int64Counter(
		"tool.call.total",
		metric.WithDescription("Total number of guarded tool calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(
		"tool.call.errors",
		metric.WithDescription("Total number of guarded tool calls that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"tool.call.duration_ms",
		metric.WithDescription("Guarded tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{calls: calls, errors: errs, duration: duration}, nil
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta ToolMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.calls.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration.Milliseconds()), opt)
}

type accessMetrics struct {
	authn       metric.Int64Counter
	rateLimited metric.Int64Counter
	authz       metric.Int64Counter
}

// NewAccessMetrics creates auth decision counters on meter.
func NewAccessMetrics(meter metric.Meter) (AccessMetrics, error) {
	authn, err := meter.Int64Counter(
		"auth.authenticate.total",
		metric.WithDescription("Authentication attempts by method and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"auth.ratelimit.rejected",
		metric.WithDescription("Requests rejected by the per-credential rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	authz, err := meter.Int64Counter(
		"auth.authorize.total",
		metric.WithDescription("Authorization decisions by action and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &accessMetrics{authn: authn, rateLimited: rateLimited, authz: authz}, nil
}

func (m *accessMetrics) RecordAuthentication(ctx context.Context, method string, outcome string) {
	m.authn.Add(ctx, 1, metric.WithAttributes(
		attribute.String("auth.method", method),
		attribute.String("auth.outcome", outcome),
	))
}

func (m *accessMetrics) RecordRateLimited(ctx context.Context, clientID string) {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("client.id", clientID)))
}

func (m *accessMetrics) RecordAuthorization(ctx context.Context, action, resource string, allowed bool) {
	m.authz.Add(ctx, 1, metric.WithAttributes(
		attribute.String("authz.action", action),
		attribute.String("authz.resource", resource),
		attribute.Bool("authz.allowed", allowed),
	))
}

type noopMetrics struct{}

// NopMetrics returns Metrics that record nothing.
func NopMetrics() Metrics { return noopMetrics{} }

// NopAccessMetrics returns AccessMetrics that record nothing.
func NopAccessMetrics() AccessMetrics { return noopMetrics{} }

func (noopMetrics) RecordExecution(context.Context, ToolMeta, time.Duration, error) {}
func (noopMetrics) RecordAuthentication(context.Context, string, string)            {}
func (noopMetrics) RecordRateLimited(context.Context, string)                       {}
func (noopMetrics) RecordAuthorization(context.Context, string, string, bool)       {}
