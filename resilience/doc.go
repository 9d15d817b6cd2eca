// Package resilience provides request admission control for the tool server.
//
// WindowLimiter is a fixed-window counter keyed by credential. Each key may
// take at most MaxRequests slots per Window; the window opens on the first
// request and a fresh one starts once the previous window's reset time has
// passed. A background sweep, started with Start and stopped with Stop, drops
// expired windows so idle credentials do not accumulate.
//
//	limiter := resilience.NewWindowLimiter(resilience.WindowConfig{
//	    Enabled:     true,
//	    MaxRequests: 100,
//	    Window:      time.Minute,
//	})
//	limiter.Start(ctx)
//	defer limiter.Stop()
//
//	quota, err := limiter.Take(apiKey)
//	if errors.Is(err, resilience.ErrRateLimitExceeded) {
//	    // reject until quota.ResetAt
//	}
package resilience
