package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordPass(ctx, true)
		m.RecordDispatch(ctx, "led", "done", time.Second)
		m.RecordAdmission(ctx, "led", "admitted")
		m.RecordJournal(ctx, 10)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := sm.StartRunSpan(ctx, "run-1", 3)
	assert.Equal(t, ctx, newCtx)
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		sm.AddSpanEvent(ctx, "event", TaskAttr("led"))
		sm.EndSpanWithError(span, errors.New("x"))
	})
}
