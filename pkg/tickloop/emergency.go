package tickloop

// AdmitUrgent queues ev on an emergency task, bypassing the normal policy.
//
// Compared with Admit:
//   - only tasks registered with WithEmergency accept it (ErrNotEmergency)
//   - the Suspended gate is skipped, so the event is held even while the
//     task is suspended and runs once the task is resumed
//   - the countdown is forced to 0; the repeat value is kept, so an urgent
//     periodic event fires now and then every Repeat ticks
//
// A full queue still rejects with ErrQueueFull: occupied slots are never
// overwritten. Because emergency tasks sit at the front of the table, an
// urgent event admitted before a pass is dispatched ahead of every ordinary
// task in that pass.
func (s *Scheduler) AdmitUrgent(ref TaskRef, ev Event) (SlotRef, error) {
	return s.admit(ref, ev, true)
}

// Emergency reports whether the task belongs to the emergency set.
func (s *Scheduler) Emergency(ref TaskRef) (bool, error) {
	rec, ok := s.table.resolve(ref)
	if !ok {
		return false, &TaskError{Op: "emergency", Err: ErrStaleTask}
	}
	return rec.emergency, nil
}
