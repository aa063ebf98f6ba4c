package tickloop

import "fmt"

// Status is the scheduling state of a task.
type Status uint8

// Task statuses.
const (
	// StatusWait means no event is being worked on.
	StatusWait Status = iota
	// StatusInProgress means a handler reported InProgress on the last pass.
	StatusInProgress
	// StatusPaused tasks still accept events but are skipped by the sweep.
	StatusPaused
	// StatusSuspended tasks reject admission and are skipped by the sweep.
	StatusSuspended
)

var statusNames = [...]string{
	StatusWait:       "wait",
	StatusInProgress: "in_progress",
	StatusPaused:     "paused",
	StatusSuspended:  "suspended",
}

// String returns the status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusWait, fmt.Errorf("unknown task status %q", name)
}

// Outcome is what a handler reports after processing an event.
type Outcome uint8

const (
	// Done means the event is finished. A periodic event re-arms, any other
	// event frees its slot.
	Done Outcome = iota
	// InProgress leaves the event untouched; it is invoked again next pass.
	InProgress
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == InProgress {
		return "in_progress"
	}
	return "done"
}

// Handler processes the events of one task.
//
// Handlers run on the scheduler's goroutine and must return promptly: a
// handler that blocks stalls every other task. Panics are not recovered.
type Handler interface {
	Handle(slot *Slot) Outcome
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(slot *Slot) Outcome

// Handle calls f(slot).
func (f HandlerFunc) Handle(slot *Slot) Outcome {
	return f(slot)
}

// taskRecord is one entry of the task table.
type taskRecord struct {
	id        uint32
	name      string
	handler   Handler
	emergency bool
	status    Status

	slots       []slot
	payloadSize int
	readIdx     int
	writeIdx    int

	// pendingTimers counts occupied slots admitted with a nonzero repeat.
	// Telemetry only.
	pendingTimers int
}

// newTaskRecord allocates all storage the task will ever use.
func newTaskRecord(name string, h Handler, capacity, payloadSize int) taskRecord {
	arena := make([]byte, capacity*payloadSize)
	rec := taskRecord{
		name:        name,
		handler:     h,
		slots:       make([]slot, capacity),
		payloadSize: payloadSize,
	}
	for i := range rec.slots {
		off := i * payloadSize
		rec.slots[i].payload = arena[off : off+payloadSize : off+payloadSize]
	}
	rec.initQueue()
	return rec
}

// initQueue marks every slot Empty and rewinds both indices.
func (t *taskRecord) initQueue() {
	for i := range t.slots {
		t.slots[i].kind = KindEmpty
		t.slots[i].repeat = 0
		t.slots[i].countdown = 0
		t.slots[i].timed = false
	}
	t.readIdx = 0
	t.writeIdx = 0
	t.pendingTimers = 0
}

// admit stores ev in the first Empty slot found from the write index.
// It returns the slot index, or -1 and the rejection reason. The write index
// moves past every occupied slot it probes and past the filled slot; after a
// full-queue rejection it has wrapped back to where it started.
func (t *taskRecord) admit(ev Event) (int, error) {
	if ev.Kind == KindEmpty {
		return -1, ErrInvalidEvent
	}
	if len(ev.Payload) > t.payloadSize {
		return -1, ErrPayloadSize
	}
	n := len(t.slots)
	for probe := 0; probe < n; probe++ {
		idx := t.writeIdx
		t.writeIdx = (t.writeIdx + 1) % n
		s := &t.slots[idx]
		if s.kind != KindEmpty {
			continue
		}
		s.fill(ev)
		if s.timed {
			t.pendingTimers++
		}
		return idx, nil
	}
	return -1, ErrQueueFull
}

// free returns slot idx to Empty. Freeing an Empty slot does nothing.
func (t *taskRecord) free(idx int) {
	s := &t.slots[idx]
	if s.kind == KindEmpty {
		return
	}
	if s.timed {
		t.pendingTimers--
	}
	s.kind = KindEmpty
	s.timed = false
	s.gen++
}

// occupied counts non-Empty slots.
func (t *taskRecord) occupied() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].kind != KindEmpty {
			n++
		}
	}
	return n
}

func (s *slot) fill(ev Event) {
	n := copy(s.payload, ev.Payload)
	clear(s.payload[n:])
	s.kind = ev.Kind
	s.repeat = ev.Repeat
	s.countdown = ev.Countdown
	s.timed = ev.Repeat != 0
	s.gen++
}
