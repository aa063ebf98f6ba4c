package tickloop

// slot is one element of a task's circular queue.
type slot struct {
	kind      Kind
	repeat    uint32
	countdown uint32

	// gen changes every time the slot is filled or freed so SlotRefs to an
	// earlier occupant stop matching.
	gen uint32

	// timed records that the occupant was admitted with a nonzero repeat,
	// for the pending-timer counter.
	timed bool

	// payload is a fixed-size window into the task's arena.
	payload []byte
}

// SlotRef identifies one admitted event.
// It stays valid until the event is freed; afterwards Delete on it is a no-op.
type SlotRef struct {
	task  TaskRef
	index int
	gen   uint32
}

// Task returns the task the event was admitted to.
func (r SlotRef) Task() TaskRef {
	return r.task
}

// Index returns the slot position inside the task's queue.
func (r SlotRef) Index() int {
	return r.index
}

// IsZero reports whether r was never issued.
func (r SlotRef) IsZero() bool {
	return r == SlotRef{}
}

// Slot is the view of an event handed to a Handler.
//
// The scheduler reuses one Slot for every dispatch, so handlers must not
// retain the pointer or the Payload slice after returning. Keep the Ref
// instead if the event has to be cancelled later.
type Slot struct {
	s    *slot
	ref  SlotRef
	name string
}

// Kind returns the event kind.
func (v *Slot) Kind() Kind {
	return v.s.kind
}

// Payload returns the slot's fixed-size payload buffer.
// Writes are visible to later invocations of the same event, which lets a
// periodic or in-progress event carry state between calls.
func (v *Slot) Payload() []byte {
	return v.s.payload
}

// Repeat returns the reload value applied when the handler reports Done.
func (v *Slot) Repeat() uint32 {
	return v.s.repeat
}

// SetRepeat changes the reload value. Setting 0 on a periodic event makes
// the next Done free the slot.
func (v *Slot) SetRepeat(ticks uint32) {
	v.s.repeat = ticks
}

// Countdown returns the remaining ticks. It is 0 whenever a handler runs
// from the loop.
func (v *Slot) Countdown() uint32 {
	return v.s.countdown
}

// Ref returns the stable reference to this event.
// Events run directly through Scheduler.Call have no slot yet; their Ref
// has Index -1 and Delete ignores it.
func (v *Slot) Ref() SlotRef {
	return v.ref
}

// Task returns the owning task.
func (v *Slot) Task() TaskRef {
	return v.ref.task
}

// TaskName returns the owning task's registered name.
func (v *Slot) TaskName() string {
	return v.name
}
