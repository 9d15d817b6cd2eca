package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumInt64(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordExecution(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	meta := ToolMeta{Name: "storage_list_files", Service: "storage", Action: "list_files"}
	m.RecordExecution(context.Background(), meta, 20*time.Millisecond, nil)
	m.RecordExecution(context.Background(), meta, 30*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)
	if got := sumInt64(t, findMetric(rm, "tool.call.total")); got != 2 {
		t.Errorf("tool.call.total = %d, want 2", got)
	}
	if got := sumInt64(t, findMetric(rm, "tool.call.errors")); got != 1 {
		t.Errorf("tool.call.errors = %d, want 1", got)
	}

	hist := findMetric(rm, "tool.call.duration_ms")
	if hist == nil {
		t.Fatal("tool.call.duration_ms not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	if data.DataPoints[0].Count != 2 {
		t.Errorf("histogram count = %d, want 2", data.DataPoints[0].Count)
	}
}

func TestAccessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewAccessMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewAccessMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.RecordAuthentication(ctx, "api_key", "success")
	m.RecordAuthentication(ctx, "api_key", "invalid_key")
	m.RecordRateLimited(ctx, "client_12345678")
	m.RecordAuthorization(ctx, "read", "documents", true)
	m.RecordAuthorization(ctx, "write", "users", false)
	m.RecordAuthorization(ctx, "write", "users", false)

	rm := collect(t, reader)
	if got := sumInt64(t, findMetric(rm, "auth.authenticate.total")); got != 2 {
		t.Errorf("auth.authenticate.total = %d, want 2", got)
	}
	if got := sumInt64(t, findMetric(rm, "auth.ratelimit.rejected")); got != 1 {
		t.Errorf("auth.ratelimit.rejected = %d, want 1", got)
	}

	authz := findMetric(rm, "auth.authorize.total")
	if authz == nil {
		t.Fatal("auth.authorize.total not found")
	}
	denied := int64(0)
	for _, dp := range authz.Data.(metricdata.Sum[int64]).DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("authz.allowed")); ok && !v.AsBool() {
			denied += dp.Value
		}
	}
	if denied != 2 {
		t.Errorf("denied decisions = %d, want 2", denied)
	}
}
