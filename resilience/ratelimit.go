package resilience

import (
	"context"
	"sync"
	"time"
)

// WindowConfig configures the fixed-window limiter.
type WindowConfig struct {
	// Enabled turns limiting on. A disabled limiter admits everything and
	// keeps no state.
	Enabled bool `yaml:"enabled"`

	// MaxRequests is the number of requests allowed per key per window.
	// Zero rejects every request.
	MaxRequests int `yaml:"max_requests"`

	// Window is the length of a window and the sweep interval.
	// Default: 1 minute
	Window time.Duration `yaml:"window"`
}

// Quota is the state of a key after an admitted request.
type Quota struct {
	// Remaining is how many more requests the key may make in this window.
	Remaining int

	// ResetAt is when the current window closes.
	ResetAt time.Time
}

// WindowStats is a snapshot of limiter state.
type WindowStats struct {
	// ActiveKeys is the number of keys with a tracked window.
	ActiveKeys int

	// Requests is the sum of admitted requests in the tracked windows. It is
	// not a lifetime total: expired windows drop out.
	Requests int

	// Rejected is reserved; rejections are not tracked and it is always 0.
	Rejected int
}

type window struct {
	count   int
	resetAt time.Time
}

// WindowOption configures a WindowLimiter.
type WindowOption func(*WindowLimiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) WindowOption {
	return func(l *WindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WindowLimiter is a per-key fixed-window request counter.
//
// Contract:
// - Concurrency: safe for concurrent use; Take is an atomic check-and-increment.
// - Lifecycle: Start launches the sweep goroutine, Stop ends it. Both are idempotent.
type WindowLimiter struct {
	config WindowConfig
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWindowLimiter creates a limiter. The sweep is not started.
func NewWindowLimiter(config WindowConfig, opts ...WindowOption) *WindowLimiter {
	if config.MaxRequests < 0 {
		config.MaxRequests = 0
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	l := &WindowLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective configuration, defaults applied.
func (l *WindowLimiter) Config() WindowConfig {
	return l.config
}

// Take admits one request for key. When the key's window is full it returns
// a *LimitError and leaves the count unchanged.
func (l *WindowLimiter) Take(key string) (Quota, error) {
	now := l.now()

	if !l.config.Enabled {
		return Quota{
			Remaining: l.config.MaxRequests,
			ResetAt:   now.Add(l.config.Window),
		}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !w.resetAt.After(now) {
		w = &window{resetAt: now.Add(l.config.Window)}
		l.windows[key] = w
	}

	if w.count >= l.config.MaxRequests {
		return Quota{Remaining: 0, ResetAt: w.resetAt}, &LimitError{Key: key, ResetAt: w.resetAt}
	}

	w.count++
	return Quota{
		Remaining: l.config.MaxRequests - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Sweep removes every window whose reset time has passed and returns how
// many were removed.
func (l *WindowLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if !w.resetAt.After(now) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the tracked windows.
func (l *WindowLimiter) Stats() WindowStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := WindowStats{ActiveKeys: len(l.windows)}
	for _, w := range l.windows {
		stats.Requests += w.count
	}
	return stats
}

// Reset drops all tracked windows.
func (l *WindowLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*window)
}

// Start launches the background sweep, ticking once per Window until ctx is
// cancelled or Stop is called. Calling Start on a running limiter is a no-op.
func (l *WindowLimiter) Start(ctx context.Context) {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	ticker := time.NewTicker(l.config.Window)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Running reports whether the sweep goroutine is active.
func (l *WindowLimiter) Running() bool {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Stop ends the background sweep and waits for it to exit.
func (l *WindowLimiter) Stop() {
	l.lifecycle.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
