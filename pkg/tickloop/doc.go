/*
Package tickloop provides a cooperative, tick-driven event scheduler for
controllers that cannot afford preemption or allocation on the hot path.

# Overview

A Scheduler owns a fixed-capacity table of tasks. Each task owns a
fixed-capacity circular queue of event slots and one Handler. The loop sweeps
the table in order, visits every slot of every task, and invokes the handler
of each occupied slot whose countdown has reached zero. Time advances only
through Tick; at most one tick is consumed per pass, so countdowns are
measured in ticks, not passes.

All queue and payload storage is allocated by Register. Admission, dispatch
and removal never allocate.

# Basic Usage

	sched := tickloop.New(tickloop.WithLogger(logger))

	led, err := sched.Register("led", tickloop.HandlerFunc(func(s *tickloop.Slot) tickloop.Outcome {
	    toggleLED()
	    return tickloop.Done
	}), 4, 0)
	if err != nil {
	    log.Fatal(err)
	}

	// Fire every 500 ticks until deleted.
	if _, err := sched.Admit(led, tickloop.Periodic(500, nil)); err != nil {
	    log.Fatal(err)
	}

	err = sched.RunWithSource(ctx, tickloop.NewIntervalSource(time.Millisecond))

# Event Timing

Every slot carries a countdown and a repeat value:

  - countdown > 0: the slot waits; each observed tick decrements it
  - countdown == 0: the handler runs
  - handler returns Done: countdown += repeat; a zero result frees the slot
  - handler returns InProgress: the slot is left as is and runs again next pass

Normal and Init events start at countdown 0. Delay and Timeout events start
at their tick count and free themselves after one Done. Periodic events
re-arm to their period after every Done and live until Delete.

# Admission

Admit scans the task's ring from its write index for a free slot. A
Suspended task or a full ring rejects the event without touching the queue;
the error is an *AdmissionError matching both ErrRejected and the specific
reason (ErrSuspended, ErrQueueFull, ...). Nothing blocks and nothing grows:
backpressure belongs to the caller.

# Task Status

  - Wait, InProgress: maintained by the loop from handler outcomes
  - Paused: admission allowed, sweep skips the task
  - Suspended: admission rejected, sweep skips the task

# Emergency Tasks

Tasks registered WithEmergency are kept ahead of ordinary tasks in the table
and accept AdmitUrgent, which bypasses the Suspended gate and forces an
immediate countdown.

# Concurrency

The scheduler is single-goroutine. Tick and Submit are the only methods safe
to call from other goroutines; Submit parks the event in a bounded inbox that
the loop drains at its suspension point. Everything else, including Admit,
Delete and Call, must run before Run, between manual Pass calls, or inside a
handler.

Handler panics are not recovered. A faulting handler stops the whole loop.

# Subpackages

  - config: YAML/JSON settings for hosts
  - journal: snapshot persistence (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
  - registry: named handler factories for config-driven hosts
*/
package tickloop
