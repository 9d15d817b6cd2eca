// Package observe provides the logging, tracing and metrics primitives used by
// the access-control layer.
//
// Logger is a small structured logger that writes one JSON object per line
// and redacts credential-bearing fields. Observer bundles an OpenTelemetry
// tracer and meter configured from Config. AccessMetrics records
// authentication, rate-limit and authorization outcomes, and Middleware wraps
// a guarded tool call with a span, execution metrics and a log line.
package observe
