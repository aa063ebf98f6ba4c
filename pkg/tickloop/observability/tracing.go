package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
//
// A single span covers a whole Run; individual passes are far too frequent
// to trace, so notable moments inside a run are recorded as span events.
type SpanManager interface {
	// StartRunSpan starts the span covering one Run.
	StartRunSpan(ctx context.Context, runID string, tasks int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider. Configure the provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("tickloop")}
}

// NewSpanManagerWithTracer returns a SpanManager bound to tracer.
func NewSpanManagerWithTracer(tracer trace.Tracer) SpanManager {
	return &otelSpanManager{tracer: tracer}
}

// StartRunSpan starts the run span.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, runID string, tasks int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "tickloop.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.tasks", tasks),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// TaskAttr is the span attribute naming a task.
func TaskAttr(task string) attribute.KeyValue {
	return attribute.String("task", task)
}

// ReasonAttr is the span attribute carrying a rejection reason.
func ReasonAttr(reason string) attribute.KeyValue {
	return attribute.String("reason", reason)
}
