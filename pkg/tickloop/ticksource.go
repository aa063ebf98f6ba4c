package tickloop

import (
	"context"
	"time"
)

// TickSource produces the periodic tick signal.
// Start must return immediately and call pulse once per period until ctx
// is cancelled.
type TickSource interface {
	Start(ctx context.Context, pulse func())
}

// IntervalSource is a TickSource backed by time.Ticker.
type IntervalSource struct {
	period time.Duration
}

// NewIntervalSource returns a source pulsing every period.
// Non-positive periods fall back to one millisecond.
func NewIntervalSource(period time.Duration) *IntervalSource {
	if period <= 0 {
		period = time.Millisecond
	}
	return &IntervalSource{period: period}
}

// Period returns the tick period.
func (s *IntervalSource) Period() time.Duration {
	return s.period
}

// Start implements TickSource.
func (s *IntervalSource) Start(ctx context.Context, pulse func()) {
	t := time.NewTicker(s.period)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				pulse()
			}
		}
	}()
}

// RunWithSource starts src against s.Tick and runs the loop until ctx is
// cancelled. The source is stopped when Run returns.
func (s *Scheduler) RunWithSource(ctx context.Context, src TickSource) error {
	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	src.Start(srcCtx, s.Tick)
	return s.Run(ctx)
}
