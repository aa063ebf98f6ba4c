package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
	"github.com/randalmurphal/tickloop/pkg/tickloop/config"
)

// Builtins returns a handler registry holding the stock handlers:
//
//	blink    toggles payload byte 0 on every event
//	counter  counts events
//	sleepy   reports InProgress for params.passes invocations per event
//	log      logs every event at params.level
func Builtins(logger *slog.Logger) *Handlers {
	h := NewHandlers()
	must(h.Register("blink", func(config.Params) (tickloop.Handler, error) {
		return &Blink{}, nil
	}))
	must(h.Register("counter", func(config.Params) (tickloop.Handler, error) {
		return &Counter{}, nil
	}))
	must(h.Register("sleepy", func(p config.Params) (tickloop.Handler, error) {
		passes := p.Int("passes", 3)
		if passes < 1 {
			return nil, fmt.Errorf("passes must be positive, got %d", passes)
		}
		return NewSleepy(passes), nil
	}))
	must(h.Register("log", func(p config.Params) (tickloop.Handler, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(p.String("level", "info"))); err != nil {
			return nil, err
		}
		return &Log{logger: logger, level: level}, nil
	}))
	return h
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Blink flips the low bit of payload byte 0 each time it runs. Paired with a
// periodic event it models an LED toggled every period.
type Blink struct {
	toggles atomic.Uint64
}

// Handle implements tickloop.Handler.
func (b *Blink) Handle(s *tickloop.Slot) tickloop.Outcome {
	if p := s.Payload(); len(p) > 0 {
		p[0] ^= 1
	}
	b.toggles.Add(1)
	return tickloop.Done
}

// Toggles returns how many times the handler ran.
func (b *Blink) Toggles() uint64 {
	return b.toggles.Load()
}

// Counter counts handled events per kind.
type Counter struct {
	total  atomic.Uint64
	byKind [tickloop.KindNormal + 1]atomic.Uint64
}

// Handle implements tickloop.Handler.
func (c *Counter) Handle(s *tickloop.Slot) tickloop.Outcome {
	c.total.Add(1)
	if k := s.Kind(); int(k) < len(c.byKind) {
		c.byKind[k].Add(1)
	}
	return tickloop.Done
}

// Count returns the total number of handled events.
func (c *Counter) Count() uint64 {
	return c.total.Load()
}

// CountKind returns the number of handled events of kind k.
func (c *Counter) CountKind(k tickloop.Kind) uint64 {
	if int(k) >= len(c.byKind) {
		return 0
	}
	return c.byKind[k].Load()
}

// Sleepy is a multi-pass worker: each event is reported InProgress until
// it has been invoked passes times. Progress is kept per slot index and is
// discarded when a different event shows up in that slot, so a cancelled
// event leaves nothing behind.
type Sleepy struct {
	passes   int
	progress map[int]sleepyProgress
	finished atomic.Uint64
}

type sleepyProgress struct {
	ref tickloop.SlotRef
	n   int
}

// NewSleepy returns a worker needing passes invocations per event.
func NewSleepy(passes int) *Sleepy {
	return &Sleepy{passes: passes, progress: make(map[int]sleepyProgress)}
}

// Handle implements tickloop.Handler.
func (w *Sleepy) Handle(s *tickloop.Slot) tickloop.Outcome {
	ref := s.Ref()
	p := w.progress[ref.Index()]
	if p.ref != ref {
		p = sleepyProgress{ref: ref}
	}
	p.n++
	if p.n < w.passes {
		w.progress[ref.Index()] = p
		return tickloop.InProgress
	}
	delete(w.progress, ref.Index())
	w.finished.Add(1)
	return tickloop.Done
}

// Tracked returns the number of slots with unfinished progress.
func (w *Sleepy) Tracked() int {
	return len(w.progress)
}

// Finished returns the number of completed events.
func (w *Sleepy) Finished() uint64 {
	return w.finished.Load()
}

// Log writes every event to a logger.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// Handle implements tickloop.Handler.
func (l *Log) Handle(s *tickloop.Slot) tickloop.Outcome {
	if l.logger != nil {
		l.logger.Log(context.Background(), l.level, "event",
			slog.String("task", s.TaskName()),
			slog.String("kind", s.Kind().String()),
			slog.Int("slot", s.Ref().Index()),
			slog.String("payload", string(trimZero(s.Payload()))),
		)
	}
	return tickloop.Done
}

func trimZero(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
