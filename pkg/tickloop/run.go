package tickloop

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/randalmurphal/tickloop/pkg/tickloop/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// submission is one Submit call waiting for the loop.
type submission struct {
	task TaskRef
	ev   Event
}

// Submit hands ev to the loop for admission on its next suspension point.
// It is safe to call from any goroutine. The payload is copied.
//
// A nil error only means the event was accepted into the inbox; the
// admission result is delivered to the WithSubmitResult callback.
func (s *Scheduler) Submit(ref TaskRef, ev Event) error {
	if ev.Payload != nil {
		ev.Payload = append([]byte(nil), ev.Payload...)
	}
	select {
	case s.inbox <- submission{task: ref, ev: ev}:
		return nil
	default:
		return ErrInboxFull
	}
}

// drainInbox admits at most one inbox's worth of submissions and reports
// how many it handled.
func (s *Scheduler) drainInbox() int {
	handled := 0
	for ; handled < cap(s.inbox); handled++ {
		select {
		case sub := <-s.inbox:
			s.deliver(sub)
		default:
			return handled
		}
	}
	return handled
}

func (s *Scheduler) deliver(sub submission) {
	ref, err := s.admit(sub.task, sub.ev, false)
	if s.cfg.onSubmit != nil {
		s.cfg.onSubmit(sub.task, ref, err)
	}
}

// Run drives the loop until ctx is cancelled, returning ctx.Err().
//
// Each iteration runs one Pass. When no tick is pending afterwards, Run
// waits for Tick, a Submit or cancellation; this is the loop's only
// suspension point. Pending submissions are admitted there, in the loop
// goroutine, so handlers never race with producers.
func (s *Scheduler) Run(ctx context.Context) (runErr error) {
	if ctx == nil {
		return errors.New("tickloop: nil context")
	}
	if s.sweeping || !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	var span trace.Span
	if s.cfg.tracingEnabled {
		ctx, span = s.cfg.spans.StartRunSpan(ctx, s.runID, s.table.len())
		defer func() {
			if errors.Is(runErr, context.Canceled) {
				s.cfg.spans.EndSpanWithError(span, nil)
				return
			}
			s.cfg.spans.EndSpanWithError(span, runErr)
		}()
	}
	s.ctx = ctx
	defer func() { s.ctx = context.Background() }()

	observability.LogRunStart(s.logger, s.runID, s.table.len())
	defer func() {
		observability.LogRunStop(s.logger, s.runID, s.passes, s.ticks, runErr)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Freshly admitted events are due on the next pass.
		if s.step() || s.acc > 0 || s.tickFlag.Load() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case sub := <-s.inbox:
			s.deliver(sub)
		}
	}
}

// maybeJournal persists a snapshot once enough ticks were consumed.
func (s *Scheduler) maybeJournal() {
	if s.cfg.journal == nil || s.journalTicks < s.cfg.journalEvery {
		return
	}
	s.journalTicks = 0
	s.journalSeq++

	data, err := json.Marshal(s.Snapshot())
	if err == nil {
		err = s.cfg.journal.Save(s.runID, s.journalSeq, data)
	}
	if err != nil {
		observability.LogJournalError(s.logger, s.runID, s.journalSeq, err)
		return
	}
	s.cfg.metrics.RecordJournal(s.ctx, int64(len(data)))
	if s.cfg.tracingEnabled {
		s.cfg.spans.AddSpanEvent(s.ctx, "tickloop.journal.saved",
			attribute.Int("journal.seq", s.journalSeq),
			attribute.Int("journal.size_bytes", len(data)))
	}
	observability.LogJournal(s.logger, s.runID, s.journalSeq, len(data))
}
