package observability

import (
	"log/slog"
)

// EnrichLogger adds scheduler context to a logger.
// Returns a new logger with run_id and task fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "led")
//	enriched.Info("toggled") // includes run_id, task
func EnrichLogger(logger *slog.Logger, runID, task string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("task", task),
	)
}

// LogRunStart logs the start of a Run.
func LogRunStart(logger *slog.Logger, runID string, tasks int) {
	if logger == nil {
		return
	}
	logger.Info("scheduler run starting",
		slog.String("run_id", runID),
		slog.Int("tasks", tasks),
	)
}

// LogRunStop logs the end of a Run along with the reason it stopped.
func LogRunStop(logger *slog.Logger, runID string, passes, ticks uint64, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("run_id", runID),
		slog.Uint64("passes", passes),
		slog.Uint64("ticks", ticks),
	}
	if err != nil {
		attrs = append(attrs, slog.String("reason", err.Error()))
	}
	logger.Info("scheduler run stopped", attrs...)
}

// LogTaskRegistered logs a new task table entry.
func LogTaskRegistered(logger *slog.Logger, task string, capacity, payloadSize int, emergency bool) {
	if logger == nil {
		return
	}
	logger.Debug("task registered",
		slog.String("task", task),
		slog.Int("capacity", capacity),
		slog.Int("payload_size", payloadSize),
		slog.Bool("emergency", emergency),
	)
}

// LogTaskRemoved logs a task removal.
func LogTaskRemoved(logger *slog.Logger, task string) {
	if logger == nil {
		return
	}
	logger.Debug("task removed",
		slog.String("task", task),
	)
}

// LogStatusChange logs a task status transition made through the API.
func LogStatusChange(logger *slog.Logger, task, from, to string) {
	if logger == nil {
		return
	}
	logger.Debug("task status changed",
		slog.String("task", task),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogDispatch logs one handler invocation.
func LogDispatch(logger *slog.Logger, task string, slot int, kind, outcome string) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("task", task),
		slog.Int("slot", slot),
		slog.String("kind", kind),
		slog.String("outcome", outcome),
	)
}

// LogAdmissionRejected logs a refused admission. suppressed is the number of
// rejections dropped by log throttling since the previous logged one.
func LogAdmissionRejected(logger *slog.Logger, task string, reason error, suppressed int) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("task", task),
		slog.String("reason", reason.Error()),
	}
	if suppressed > 0 {
		attrs = append(attrs, slog.Int("suppressed", suppressed))
	}
	logger.Warn("event rejected", attrs...)
}

// LogJournal logs a saved snapshot.
func LogJournal(logger *slog.Logger, runID string, seq, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot journaled",
		slog.String("run_id", runID),
		slog.Int("seq", seq),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogJournalError logs a journal failure (non-fatal).
func LogJournalError(logger *slog.Logger, runID string, seq int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot journal failed",
		slog.String("run_id", runID),
		slog.Int("seq", seq),
		slog.String("error", err.Error()),
	)
}
