package tickloop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmit_QueueFullMutatesNothing(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 3, 4)

	mustAdmit(t, s, ref, Delay(5, []byte{1}))
	mustAdmit(t, s, ref, Periodic(2, []byte{2}))
	mustAdmit(t, s, ref, Normal([]byte{3}))
	before := captureQueue(t, s, ref)

	_, err := s.Admit(ref, Normal([]byte{9, 9, 9, 9}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrSuspended)

	var admErr *AdmissionError
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, "a", admErr.Task)
	assert.Equal(t, "admit to task a: event queue full", err.Error())

	assert.Equal(t, before, captureQueue(t, s, ref))
}

func TestAdmit_SuspendedNeverMutates(t *testing.T) {
	tests := []struct {
		name  string
		fill  int
		extra Event
	}{
		{"empty queue", 0, Normal(nil)},
		{"partially filled", 1, Periodic(3, []byte{7})},
		{"full queue", 2, Delay(1, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			ref := mustRegister(t, s, "a", &recorder{}, 2, 1)
			for i := 0; i < tt.fill; i++ {
				mustAdmit(t, s, ref, Normal([]byte{byte(i)}))
			}
			require.NoError(t, s.Suspend(ref))
			before := captureQueue(t, s, ref)

			_, err := s.Admit(ref, tt.extra)
			assert.ErrorIs(t, err, ErrSuspended)
			assert.ErrorIs(t, err, ErrRejected)
			assert.NotErrorIs(t, err, ErrQueueFull)
			assert.Equal(t, before, captureQueue(t, s, ref))
		})
	}
}

func TestAdmit_PausedStillAccepts(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 2, 0)
	require.NoError(t, s.Pause(ref))

	_, err := s.Admit(ref, Normal(nil))
	require.NoError(t, err)

	n, err := s.Occupied(ref)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAdmit_WriteIndexProbing(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 3, 0)

	refs := make([]SlotRef, 3)
	for i := range refs {
		refs[i] = mustAdmit(t, s, ref, Delay(10, nil))
		assert.Equal(t, i, refs[i].Index())
	}
	assert.Equal(t, 0, captureQueue(t, s, ref).writeIdx, "write index wrapped")

	require.True(t, s.Delete(refs[1]))

	// Probe 0 (occupied) then 1 (free): the index moves past both.
	sref := mustAdmit(t, s, ref, Normal(nil))
	assert.Equal(t, 1, sref.Index())
	st := captureQueue(t, s, ref)
	assert.Equal(t, 2, st.writeIdx)
	assert.Equal(t, 0, st.readIdx, "read index untouched")
}

func TestAdmit_Payload(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 2, 4)

	t.Run("short payload is zero padded", func(t *testing.T) {
		buf := []byte{1, 2}
		sref := mustAdmit(t, s, ref, Normal(buf))
		buf[0] = 42

		st := captureQueue(t, s, ref)
		assert.Equal(t, []byte{1, 2, 0, 0}, st.payloads[sref.Index()], "caller keeps ownership")
		s.Delete(sref)
	})

	t.Run("reused slot is cleared", func(t *testing.T) {
		a := mustAdmit(t, s, ref, Normal([]byte{9, 9, 9, 9}))
		s.Delete(a)
		b := mustAdmit(t, s, ref, Normal([]byte{5}))
		s.Delete(b)
		c := mustAdmit(t, s, ref, Normal(nil))
		assert.Equal(t, a.Index(), c.Index())
		assert.Equal(t, []byte{0, 0, 0, 0}, captureQueue(t, s, ref).payloads[c.Index()])
		s.Delete(c)
	})

	t.Run("oversized payload is rejected", func(t *testing.T) {
		before := captureQueue(t, s, ref)
		_, err := s.Admit(ref, Normal([]byte{1, 2, 3, 4, 5}))
		assert.ErrorIs(t, err, ErrPayloadSize)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, before, captureQueue(t, s, ref))
	})
}

func TestAdmit_InvalidEvent(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 1, 0)

	_, err := s.Admit(ref, Event{})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestAdmit_StaleTask(t *testing.T) {
	s := New()

	_, err := s.Admit(TaskRef{}, Normal(nil))
	assert.ErrorIs(t, err, ErrStaleTask)
	assert.NotErrorIs(t, err, ErrRejected)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "admit", taskErr.Op)
}

func TestAdmit_PendingTimers(t *testing.T) {
	s := New()
	ref := mustRegister(t, s, "a", &recorder{}, 4, 0)

	p := mustAdmit(t, s, ref, Periodic(3, nil))
	mustAdmit(t, s, ref, Delay(3, nil))
	mustAdmit(t, s, ref, Normal(nil))
	assert.Equal(t, 1, captureQueue(t, s, ref).pendingTimers)

	require.True(t, s.Delete(p))
	assert.Equal(t, 0, captureQueue(t, s, ref).pendingTimers)
}

func TestAdmissionError(t *testing.T) {
	err := rejected("uart", ErrSuspended)

	assert.True(t, errors.Is(err, ErrRejected))
	assert.True(t, errors.Is(err, ErrSuspended))
	assert.False(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, "admit to task uart: task suspended", err.Error())
}

func TestTaskError(t *testing.T) {
	named := &TaskError{Task: "led", Op: "register", Err: ErrCapacityExceeded}
	assert.Equal(t, "register task led: task table full", named.Error())
	assert.ErrorIs(t, named, ErrCapacityExceeded)

	anon := &TaskError{Op: "remove", Err: ErrStaleTask}
	assert.Equal(t, "remove task: stale task reference", anon.Error())
}

// Scenario: capacity 2, 4-byte payload. A finished Normal event frees its
// slot for later admissions; once both slots hold work, admission fails.
func TestAdmit_ScenarioFreedSlotReuse(t *testing.T) {
	s := New()
	inFlight := false
	h := &recorder{outcome: func(sl *Slot) Outcome {
		if sl.Payload()[0] == 2 {
			inFlight = true
			return InProgress
		}
		return Done
	}}
	ref := mustRegister(t, s, "A", h, 2, 4)

	first := mustAdmit(t, s, ref, Normal([]byte{1, 0, 0, 0}))
	mustPass(t, s, 1)
	assert.Equal(t, KindEmpty, slotAt(t, s, ref, first.Index()).kind, "freed after one pass")

	mustAdmit(t, s, ref, Normal([]byte{2, 0, 0, 0}))
	mustPass(t, s, 1)
	require.True(t, inFlight)

	third := mustAdmit(t, s, ref, Delay(5, []byte{3, 0, 0, 0}))
	assert.Equal(t, first.Index(), third.Index(), "freed slot reused")

	before := captureQueue(t, s, ref)
	_, err := s.Admit(ref, Normal([]byte{4, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, before, captureQueue(t, s, ref))
}
