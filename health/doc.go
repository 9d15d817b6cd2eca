// Package health reports whether the access-control components are working.
//
// A Checker reports a Result with a Status of healthy, degraded or unhealthy.
// An Aggregator runs a set of named checkers concurrently, each bounded by a
// timeout, and folds their results into a Report whose status is the worst
// individual status.
//
//	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 2 * time.Second})
//	agg.Register(gateway.AuthHealthCheck(mw))
//	report := agg.Run(ctx)
package health
