package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/apiscaffold"
)

// Metrics holds the service's metric instruments.
type Metrics struct {
	HealthChecksTotal metric.Int64Counter
	StorePingDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the process wide Metrics bound to the global meter
// provider. Until InitTelemetry runs the global provider is a no-op.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.HealthChecksTotal, _ = meter.Int64Counter(
		"apiscaffold.health.checks.total",
		metric.WithDescription("Health checks served, by backend and result"),
		metric.WithUnit("{check}"),
	)

	m.StorePingDuration, _ = meter.Float64Histogram(
		"apiscaffold.store.ping.duration",
		metric.WithDescription("Duration of data store pings made by health checks"),
		metric.WithUnit("ms"),
	)

	return m
}

// RecordHealthCheck records one health check outcome.
func (m *Metrics) RecordHealthCheck(ctx context.Context, database, backend string, healthy bool, pingDuration time.Duration) {
	result := "healthy"
	if !healthy {
		result = "unhealthy"
	}

	attrs := metric.WithAttributes(
		attribute.String("database", database),
		attribute.String("backend", backend),
		attribute.String("result", result),
	)
	m.HealthChecksTotal.Add(ctx, 1, attrs)

	if backend != "" {
		m.StorePingDuration.Record(ctx, float64(pingDuration)/float64(time.Millisecond), attrs)
	}
}
