package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records scheduler metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPass records one completed sweep and whether it consumed a tick.
	RecordPass(ctx context.Context, tickObserved bool)

	// RecordDispatch records a handler invocation with its outcome and latency.
	RecordDispatch(ctx context.Context, task, outcome string, duration time.Duration)

	// RecordAdmission records an admission attempt. result is "admitted" or
	// the rejection reason.
	RecordAdmission(ctx context.Context, task, result string)

	// RecordJournal records a snapshot save.
	RecordJournal(ctx context.Context, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	meter metric.Meter

	passes         metric.Int64Counter
	ticks          metric.Int64Counter
	dispatches     metric.Int64Counter
	handlerLatency metric.Float64Histogram
	admissions     metric.Int64Counter
	journalSize    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("tickloop"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	passes, err := meter.Int64Counter("tickloop.passes",
		metric.WithDescription("Number of completed sweeps"),
	)
	if err != nil {
		return nil, err
	}

	ticks, err := meter.Int64Counter("tickloop.ticks",
		metric.WithDescription("Number of ticks consumed by the loop"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("tickloop.dispatches",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("tickloop.handler.latency_us",
		metric.WithDescription("Handler latency in microseconds"),
		metric.WithUnit("us"),
	)
	if err != nil {
		return nil, err
	}

	admissions, err := meter.Int64Counter("tickloop.admissions",
		metric.WithDescription("Number of admission attempts by result"),
	)
	if err != nil {
		return nil, err
	}

	journalSize, err := meter.Int64Histogram("tickloop.journal.size_bytes",
		metric.WithDescription("Journaled snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		meter:          meter,
		passes:         passes,
		ticks:          ticks,
		dispatches:     dispatches,
		handlerLatency: handlerLatency,
		admissions:     admissions,
		journalSize:    journalSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a recorder bound to a specific meter,
// bypassing the global provider. Tests use it with a ManualReader.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

// RecordPass records a sweep.
func (m *otelMetrics) RecordPass(ctx context.Context, tickObserved bool) {
	m.passes.Add(ctx, 1)
	if tickObserved {
		m.ticks.Add(ctx, 1)
	}
}

// RecordDispatch records a handler invocation.
func (m *otelMetrics) RecordDispatch(ctx context.Context, task, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("outcome", outcome),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.handlerLatency.Record(ctx, float64(duration.Microseconds()), attrs)
}

// RecordAdmission records an admission attempt.
func (m *otelMetrics) RecordAdmission(ctx context.Context, task, result string) {
	m.admissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("result", result),
	))
}

// RecordJournal records a snapshot save.
func (m *otelMetrics) RecordJournal(ctx context.Context, sizeBytes int64) {
	m.journalSize.Record(ctx, sizeBytes)
}
