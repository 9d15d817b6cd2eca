package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func fixed(name string, s Status) Checker {
	return NewCheckerFunc(name, func(context.Context) Result {
		return Result{Status: s}
	})
}

func TestAggregator_RunWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Checker{fixed("a", StatusHealthy), fixed("b", StatusHealthy)}, StatusHealthy},
		{"one degraded", []Checker{fixed("a", StatusHealthy), fixed("b", StatusDegraded)}, StatusDegraded},
		{"unhealthy wins", []Checker{fixed("a", StatusDegraded), fixed("b", StatusUnhealthy)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(AggregatorConfig{})
			agg.Register(tt.checkers...)

			report := agg.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checkers) {
				t.Errorf("len(Checks) = %d, want %d", len(report.Checks), len(tt.checkers))
			}
			if report.CheckedAt.IsZero() {
				t.Error("CheckedAt should not be zero")
			}
		})
	}
}

func TestAggregator_RegisterReplacesAndSkipsNil(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("auth", StatusUnhealthy), nil, fixed("permissions", StatusHealthy))
	agg.Register(fixed("auth", StatusHealthy))

	names := agg.Names()
	if len(names) != 2 || names[0] != "auth" || names[1] != "permissions" {
		t.Errorf("Names() = %v, want [auth permissions]", names)
	}
	if report := agg.Run(context.Background()); report.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy after replacement", report.Status)
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("auth", StatusDegraded))

	r, err := agg.Check(context.Background(), "auth")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if r.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", r.Status)
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp should be filled in")
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register(NewCheckerFunc("slow", func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return Healthy("late")
	}))

	report := agg.Run(context.Background())
	r := report.Checks["slow"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("slow check = %+v, want unhealthy timeout", r)
	}
}

func TestAggregator_Panic(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(NewCheckerFunc("boom", func(context.Context) Result {
		panic("boom")
	}))

	r := agg.Run(context.Background()).Checks["boom"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckPanicked) {
		t.Errorf("boom check = %+v, want unhealthy panic", r)
	}
}

func TestAggregator_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	check := func(ctx context.Context) Result {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return Healthy("")
	}

	agg := NewAggregator(AggregatorConfig{Concurrency: 2})
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		agg.Register(NewCheckerFunc(name, check))
	}
	agg.Run(context.Background())

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("auth", StatusHealthy), fixed("permissions", StatusDegraded))

	c := agg.Checker("access")
	if c.Name() != "access" {
		t.Errorf("Name() = %q", c.Name())
	}
	r := c.Check(context.Background())
	if r.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", r.Status)
	}
	if r.Details["permissions"] != "degraded" {
		t.Errorf("Details = %v", r.Details)
	}
}
