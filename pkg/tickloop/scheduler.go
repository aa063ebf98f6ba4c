package tickloop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/tickloop/pkg/tickloop/observability"
	"golang.org/x/time/rate"
)

// Scheduler is a cooperative, single-goroutine event dispatcher.
//
// Tick and Submit are safe to call from any goroutine. Every other method
// must be called before Run starts, between manual Pass calls, or from inside
// a Handler, which runs on the loop goroutine.
type Scheduler struct {
	cfg    schedConfig
	runID  string
	logger *slog.Logger

	table table

	// acc is the carried tick accumulator, only touched by the loop.
	acc uint32
	// tickFlag is the external "tick elapsed" signal.
	tickFlag atomic.Bool
	wake     chan struct{}
	inbox    chan submission

	sweeping bool
	running  atomic.Bool
	ctx      context.Context

	// cur is the Slot view reused for every dispatch.
	cur Slot

	passes       uint64
	ticks        uint64
	journalTicks uint64
	journalSeq   int

	rejectLog  *rate.Limiter
	suppressed int
}

// New creates a scheduler with an empty task table.
func New(opts ...Option) *Scheduler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	runID := cfg.runID
	if runID == "" {
		runID = "run-" + uuid.NewString()[:8]
	}
	return &Scheduler{
		cfg:       cfg,
		runID:     runID,
		logger:    cfg.logger,
		table:     newTable(cfg.capacity),
		wake:      make(chan struct{}, 1),
		inbox:     make(chan submission, cfg.inboxSize),
		ctx:       context.Background(),
		rejectLog: cfg.rejectLimiter(),
	}
}

// RunID returns the identifier used in logs, spans and journal entries.
func (s *Scheduler) RunID() string {
	return s.runID
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return s.table.len()
}

// Cap returns the task table capacity.
func (s *Scheduler) Cap() int {
	return s.table.cap()
}

// busy reports whether table mutations must be refused.
func (s *Scheduler) busy() bool {
	return s.sweeping || s.running.Load()
}

// Register adds a task whose queue holds queueCapacity events of at most
// payloadSize bytes each. All storage is allocated here.
func (s *Scheduler) Register(name string, h Handler, queueCapacity, payloadSize int, opts ...TaskOption) (TaskRef, error) {
	if s.busy() {
		return TaskRef{}, &TaskError{Task: name, Op: "register", Err: ErrRunning}
	}
	if h == nil || queueCapacity <= 0 || payloadSize < 0 {
		return TaskRef{}, &TaskError{Task: name, Op: "register", Err: ErrInvalidTask}
	}
	var tc taskConfig
	for _, opt := range opts {
		opt(&tc)
	}

	rec := newTaskRecord(name, h, queueCapacity, payloadSize)
	rec.emergency = tc.emergency
	rec.status = tc.status
	// The init event bypasses the Suspended gate; see WithInitEvent.
	if tc.init {
		if _, err := rec.admit(Init(tc.initData)); err != nil {
			return TaskRef{}, &TaskError{Task: name, Op: "register", Err: err}
		}
	}

	ref, err := s.table.insert(rec)
	if err != nil {
		return TaskRef{}, &TaskError{Task: name, Op: "register", Err: err}
	}
	observability.LogTaskRegistered(s.logger, name, queueCapacity, payloadSize, tc.emergency)
	return ref, nil
}

// Remove deletes a task and compacts the table. Refs to other tasks stay
// valid; ref itself stops resolving.
func (s *Scheduler) Remove(ref TaskRef) error {
	if s.busy() {
		return &TaskError{Op: "remove", Err: ErrRunning}
	}
	rec, ok := s.table.resolve(ref)
	if !ok {
		return &TaskError{Op: "remove", Err: ErrStaleTask}
	}
	name := rec.name
	if err := s.table.remove(ref); err != nil {
		return &TaskError{Task: name, Op: "remove", Err: err}
	}
	observability.LogTaskRemoved(s.logger, name)
	return nil
}

// Admit queues ev on the task behind ref.
//
// Admission is refused without side effects when the task is Suspended or
// every slot is occupied; the returned error is an *AdmissionError.
func (s *Scheduler) Admit(ref TaskRef, ev Event) (SlotRef, error) {
	return s.admit(ref, ev, false)
}

func (s *Scheduler) admit(ref TaskRef, ev Event, urgent bool) (SlotRef, error) {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return SlotRef{}, &TaskError{Op: "admit", Err: ErrStaleTask}
	}
	if urgent {
		if !rec.emergency {
			return SlotRef{}, s.reject(rec, ErrNotEmergency)
		}
		ev.Countdown = 0
	} else if rec.status == StatusSuspended {
		return SlotRef{}, s.reject(rec, ErrSuspended)
	}
	idx, err := rec.admit(ev)
	if err != nil {
		return SlotRef{}, s.reject(rec, err)
	}
	s.cfg.metrics.RecordAdmission(s.ctx, rec.name, "admitted")
	return SlotRef{task: ref, index: idx, gen: rec.slots[idx].gen}, nil
}

func (s *Scheduler) reject(rec *taskRecord, reason error) error {
	s.cfg.metrics.RecordAdmission(s.ctx, rec.name, reasonLabel(reason))
	if s.cfg.tracingEnabled {
		s.cfg.spans.AddSpanEvent(s.ctx, "tickloop.admission.rejected",
			observability.TaskAttr(rec.name), observability.ReasonAttr(reason.Error()))
	}
	if s.logger != nil {
		if s.rejectLog.Allow() {
			observability.LogAdmissionRejected(s.logger, rec.name, reason, s.suppressed)
			s.suppressed = 0
		} else {
			s.suppressed++
		}
	}
	return rejected(rec.name, reason)
}

func reasonLabel(reason error) string {
	switch reason {
	case ErrQueueFull:
		return "queue_full"
	case ErrSuspended:
		return "suspended"
	case ErrPayloadSize:
		return "payload_size"
	case ErrNotEmergency:
		return "not_emergency"
	case ErrInvalidEvent:
		return "invalid_event"
	}
	return "rejected"
}

// Delete frees the slot behind ref, cancelling a pending event.
// It reports whether an event was freed; deleting an already freed or
// re-used slot does nothing.
func (s *Scheduler) Delete(ref SlotRef) bool {
	rec, ok := s.table.resolve(ref.task)
	if !ok || ref.index < 0 || ref.index >= len(rec.slots) {
		return false
	}
	sl := &rec.slots[ref.index]
	if sl.kind == KindEmpty || sl.gen != ref.gen {
		return false
	}
	rec.free(ref.index)
	return true
}

// Status returns the task's current status.
func (s *Scheduler) Status(ref TaskRef) (Status, error) {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return StatusWait, &TaskError{Op: "status", Err: ErrStaleTask}
	}
	return rec.status, nil
}

// SetStatus changes the task's status.
func (s *Scheduler) SetStatus(ref TaskRef, st Status) error {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return &TaskError{Op: "status", Err: ErrStaleTask}
	}
	if rec.status != st {
		observability.LogStatusChange(s.logger, rec.name, rec.status.String(), st.String())
		rec.status = st
	}
	return nil
}

// Pause keeps the task's queue accepting events but stops the sweep from
// visiting it. Countdowns are frozen while paused.
func (s *Scheduler) Pause(ref TaskRef) error {
	return s.SetStatus(ref, StatusPaused)
}

// Suspend makes admission fail with ErrSuspended and stops the sweep from
// visiting the task.
func (s *Scheduler) Suspend(ref TaskRef) error {
	return s.SetStatus(ref, StatusSuspended)
}

// Resume returns a paused or suspended task to StatusWait.
func (s *Scheduler) Resume(ref TaskRef) error {
	return s.SetStatus(ref, StatusWait)
}

// Occupied returns the number of queued events of the task.
func (s *Scheduler) Occupied(ref TaskRef) (int, error) {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return 0, &TaskError{Op: "occupied", Err: ErrStaleTask}
	}
	return rec.occupied(), nil
}

// Pass runs one sweep over every task followed by tick settlement, then
// admits pending submissions. It is the building block of Run for hosts that
// drive the loop themselves.
// Pass fails with ErrRunning when called from a handler or while Run is active.
func (s *Scheduler) Pass() error {
	if s.busy() {
		return ErrRunning
	}
	s.step()
	return nil
}

// step runs one pass and the work done after it. It reports whether
// submissions were admitted.
func (s *Scheduler) step() bool {
	s.pass()
	admitted := s.drainInbox() > 0
	s.maybeJournal()
	return admitted
}

func (s *Scheduler) pass() {
	observed := s.acc > 0
	s.sweeping = true
	s.sweep(observed)
	s.sweeping = false
	s.settle()
	s.passes++
	s.cfg.metrics.RecordPass(s.ctx, observed)
}

// sweep visits every live task in table order and every slot in index order.
func (s *Scheduler) sweep(observed bool) {
	for pos := 0; pos < len(s.table.records); pos++ {
		rec := &s.table.records[pos]
		if rec.status == StatusPaused || rec.status == StatusSuspended {
			continue
		}
		ref := s.table.refAt(pos)
		inProgress := false
		for i := range rec.slots {
			sl := &rec.slots[i]
			if sl.kind == KindEmpty {
				continue
			}
			if sl.countdown > 0 {
				if observed {
					sl.countdown--
				}
				continue
			}
			gen := sl.gen
			if s.dispatch(rec, ref, i) == InProgress {
				inProgress = true
				continue
			}
			// The handler deleted or replaced its own event.
			if sl.gen != gen || sl.kind == KindEmpty {
				continue
			}
			sl.countdown += sl.repeat
			if sl.countdown == 0 {
				rec.free(i)
			}
		}
		switch rec.status {
		case StatusWait, StatusInProgress:
			if inProgress {
				rec.status = StatusInProgress
			} else {
				rec.status = StatusWait
			}
		}
	}
}

func (s *Scheduler) dispatch(rec *taskRecord, ref TaskRef, idx int) Outcome {
	sl := &rec.slots[idx]
	s.cur = Slot{s: sl, ref: SlotRef{task: ref, index: idx, gen: sl.gen}, name: rec.name}
	kind := sl.kind

	var start time.Time
	if s.cfg.metricsEnabled {
		start = time.Now()
	}
	out := rec.handler.Handle(&s.cur)
	if s.cfg.metricsEnabled {
		s.cfg.metrics.RecordDispatch(s.ctx, rec.name, out.String(), time.Since(start))
	}
	observability.LogDispatch(s.logger, rec.name, idx, kind.String(), out.String())
	s.cur = Slot{}
	return out
}

// settle consumes at most one accumulated tick and folds in the external
// flag. A tick raised during the sweep therefore only affects the next pass.
func (s *Scheduler) settle() {
	if s.acc > 0 {
		s.acc--
		s.ticks++
		s.journalTicks++
	}
	if s.tickFlag.Swap(false) {
		s.acc++
	}
}

// Tick signals that one tick period elapsed. It is idempotent between
// passes and safe to call from any goroutine.
func (s *Scheduler) Tick() {
	s.tickFlag.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
