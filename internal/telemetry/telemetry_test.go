package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestRecordHealthCheck(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp.Meter(meterName))

	ctx := context.Background()
	m.RecordHealthCheck(ctx, "sql", "sqlite", true, 2*time.Millisecond)
	m.RecordHealthCheck(ctx, "sql", "sqlite", true, 3*time.Millisecond)
	m.RecordHealthCheck(ctx, "sql", "sqlite", false, time.Second)
	m.RecordHealthCheck(ctx, "sql", "", true, 0)

	metrics := collect(t, reader)

	checks, ok := metrics["apiscaffold.health.checks.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range checks.DataPoints {
		backend, _ := dp.Attributes.Value(attribute.Key("backend"))
		result, _ := dp.Attributes.Value(attribute.Key("result"))
		counts[backend.AsString()+"/"+result.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		"sqlite/healthy":   2,
		"sqlite/unhealthy": 1,
		"/healthy":         1,
	}, counts)

	pings, ok := metrics["apiscaffold.store.ping.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var recorded uint64
	for _, dp := range pings.DataPoints {
		recorded += dp.Count
	}
	// checks without a backend make no ping
	assert.Equal(t, uint64(3), recorded)
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())

	// the global provider is a no-op until InitTelemetry runs
	m.RecordHealthCheck(context.Background(), "mongodb", "mongodb", true, time.Millisecond)
}

func TestInitTelemetry(t *testing.T) {
	prevTracer := otel.GetTracerProvider()
	prevMeter := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	})

	// exporters dial lazily, so no collector needs to be listening
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4317")

	shutdown, err := InitTelemetry(context.Background(), "apiscaffold-test", "v0.0.0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_, ok = otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// nothing is listening, only check shutdown returns promptly
	_ = shutdown(ctx)
}
