package tickloop

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/tickloop/pkg/tickloop/journal"
	"github.com/randalmurphal/tickloop/pkg/tickloop/observability"
	"golang.org/x/time/rate"
)

// schedConfig holds scheduler construction settings.
type schedConfig struct {
	capacity  int
	inboxSize int
	runID     string

	logger         *slog.Logger
	rejectLogEvery time.Duration
	rejectLogBurst int

	metricsEnabled bool
	metrics        observability.MetricsRecorder
	tracingEnabled bool
	spans          observability.SpanManager

	journal      journal.Store
	journalEvery uint64

	onSubmit func(task TaskRef, slot SlotRef, err error)
}

func defaultConfig() schedConfig {
	return schedConfig{
		capacity:       DefaultCapacity,
		inboxSize:      64,
		rejectLogEvery: time.Second,
		rejectLogBurst: 5,
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
	}
}

func (c schedConfig) rejectLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(c.rejectLogEvery), c.rejectLogBurst)
}

// Option configures a Scheduler.
type Option func(*schedConfig)

// WithCapacity sets the task table capacity.
// Default: DefaultCapacity (15)
func WithCapacity(n int) Option {
	return func(c *schedConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithInboxSize sets how many Submit calls may be pending between passes.
// Default: 64
func WithInboxSize(n int) Option {
	return func(c *schedConfig) {
		if n > 0 {
			c.inboxSize = n
		}
	}
}

// WithRunID overrides the generated run identifier used in logs, spans and
// journal entries.
func WithRunID(id string) Option {
	return func(c *schedConfig) {
		c.runID = id
	}
}

// WithLogger enables structured logging. A nil logger keeps the scheduler
// silent.
func WithLogger(logger *slog.Logger) Option {
	return func(c *schedConfig) {
		c.logger = logger
	}
}

// WithRejectLogRate bounds how often admission rejections are logged.
// Rejections beyond the budget are counted and reported with the next
// logged rejection.
// Default: one per second, burst 5
func WithRejectLogRate(every time.Duration, burst int) Option {
	return func(c *schedConfig) {
		if every > 0 {
			c.rejectLogEvery = every
		}
		if burst > 0 {
			c.rejectLogBurst = burst
		}
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *schedConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder installs a specific recorder, enabling metrics.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *schedConfig) {
		if m == nil {
			return
		}
		c.metricsEnabled = true
		c.metrics = m
	}
}

// WithTracing enables OpenTelemetry tracing through the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *schedConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithJournal makes Run save a JSON Snapshot to store every everyTicks
// consumed ticks. Journal failures are logged and otherwise ignored.
func WithJournal(store journal.Store, everyTicks uint64) Option {
	return func(c *schedConfig) {
		if store == nil || everyTicks == 0 {
			return
		}
		c.journal = store
		c.journalEvery = everyTicks
	}
}

// WithSubmitResult registers a callback receiving the outcome of every
// event delivered through Submit. It runs on the scheduler goroutine.
func WithSubmitResult(fn func(task TaskRef, slot SlotRef, err error)) Option {
	return func(c *schedConfig) {
		c.onSubmit = fn
	}
}

// taskConfig holds per-task registration settings.
type taskConfig struct {
	emergency bool
	status    Status
	init      bool
	initData  []byte
}

// TaskOption configures a task at registration.
type TaskOption func(*taskConfig)

// WithEmergency places the task in the emergency set: it is swept ahead of
// ordinary tasks and accepts AdmitUrgent.
func WithEmergency() TaskOption {
	return func(c *taskConfig) {
		c.emergency = true
	}
}

// WithInitEvent queues a KindInit event carrying payload at registration.
// The event is queued even if WithInitialStatus starts the task Suspended,
// where every later admission is refused; it then runs once the task is
// resumed.
func WithInitEvent(payload []byte) TaskOption {
	return func(c *taskConfig) {
		c.init = true
		c.initData = payload
	}
}

// WithInitialStatus sets the status the task starts in.
// Default: StatusWait
func WithInitialStatus(s Status) TaskOption {
	return func(c *taskConfig) {
		c.status = s
	}
}
