package observability

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
)

// setupMetricsTest creates a recorder bound to a manual reader.
func setupMetricsTest(t *testing.T) (MetricsRecorder, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})

	m, err := NewMetricsRecorderWithMeter(provider.Meter("tickloop-test"))
	require.NoError(t, err)
	return m, reader
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumByAttr totals an int64 sum's datapoints whose key attribute equals value.
func sumByAttr(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")

	var total int64
	for _, dp := range sum.DataPoints {
		if key == "" {
			total += dp.Value
			continue
		}
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	original := otel.GetMeterProvider()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	otel.SetMeterProvider(provider)
	defer otel.SetMeterProvider(original)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordPass(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordPass(ctx, false)
	m.RecordPass(ctx, true)
	m.RecordPass(ctx, true)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(3), sumByAttr(t, findMetric(rm, "tickloop.passes"), "", ""))
	assert.Equal(t, int64(2), sumByAttr(t, findMetric(rm, "tickloop.ticks"), "", ""))
}

func TestRecordDispatch(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordDispatch(ctx, "led", "done", 40*time.Microsecond)
	m.RecordDispatch(ctx, "led", "in_progress", 10*time.Microsecond)
	m.RecordDispatch(ctx, "uart", "done", time.Millisecond)

	rm := collectMetrics(t, reader)
	dispatches := findMetric(rm, "tickloop.dispatches")
	assert.Equal(t, int64(2), sumByAttr(t, dispatches, "task", "led"))
	assert.Equal(t, int64(1), sumByAttr(t, dispatches, "outcome", "in_progress"))

	latency := findMetric(rm, "tickloop.handler.latency_us")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestRecordAdmission(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordAdmission(ctx, "led", "admitted")
	m.RecordAdmission(ctx, "led", "admitted")
	m.RecordAdmission(ctx, "led", "queue_full")

	rm := collectMetrics(t, reader)
	admissions := findMetric(rm, "tickloop.admissions")
	assert.Equal(t, int64(2), sumByAttr(t, admissions, "result", "admitted"))
	assert.Equal(t, int64(1), sumByAttr(t, admissions, "result", "queue_full"))
}

func TestRecordJournal(t *testing.T) {
	m, reader := setupMetricsTest(t)

	m.RecordJournal(context.Background(), 256)

	rm := collectMetrics(t, reader)
	size := findMetric(rm, "tickloop.journal.size_bytes")
	require.NotNil(t, size)
	hist, ok := size.Data.(metricdata.Histogram[int64])
	require.True(t, ok, "Expected Histogram type")
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, int64(256), hist.DataPoints[0].Sum)
}
