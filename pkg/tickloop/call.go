package tickloop

// Call runs the task's handler on ev immediately instead of queueing it.
//
// If the handler reports Done the event is finished and nothing is queued;
// the returned SlotRef is zero. If it reports InProgress, the event, with any
// payload changes the handler made, is admitted to the task's queue so the
// loop keeps invoking it on later passes. Admission rules apply to that
// hand-off, so a full queue yields InProgress together with an
// *AdmissionError and the unfinished work is dropped.
//
// The handler only runs directly while the task is idle. If the task is
// InProgress or Paused, ev is queued behind the unfinished work instead and
// Call returns InProgress with the queued SlotRef, so the handler never works
// on two events at once. Suspended tasks refuse the call before the handler
// runs.
func (s *Scheduler) Call(ref TaskRef, ev Event) (Outcome, SlotRef, error) {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return Done, SlotRef{}, &TaskError{Op: "call", Err: ErrStaleTask}
	}
	switch rec.status {
	case StatusSuspended:
		return Done, SlotRef{}, s.reject(rec, ErrSuspended)
	case StatusInProgress, StatusPaused:
		sref, err := s.admit(ref, ev, false)
		return InProgress, sref, err
	}
	if ev.Kind == KindEmpty {
		return Done, SlotRef{}, s.reject(rec, ErrInvalidEvent)
	}
	if len(ev.Payload) > rec.payloadSize {
		return Done, SlotRef{}, s.reject(rec, ErrPayloadSize)
	}

	tmp := slot{payload: make([]byte, rec.payloadSize)}
	tmp.fill(ev)
	tmp.countdown = 0
	view := &Slot{s: &tmp, ref: SlotRef{task: ref, index: -1}, name: rec.name}

	out := rec.handler.Handle(view)
	if out == Done {
		return Done, SlotRef{}, nil
	}

	// The handler may have re-entered the scheduler; resolve again.
	if _, ok := s.table.resolve(ref); !ok {
		return InProgress, SlotRef{}, &TaskError{Op: "call", Err: ErrStaleTask}
	}
	queued := Event{Kind: tmp.kind, Payload: tmp.payload, Repeat: tmp.repeat}
	sref, err := s.admit(ref, queued, false)
	return InProgress, sref, err
}
