package tickloop

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// call is one recorded handler invocation.
type call struct {
	task      string
	index     int
	kind      Kind
	countdown uint32
	payload   []byte
}

// recorder is a Handler that records every invocation. outcome, when set,
// decides the result; otherwise every event is Done.
type recorder struct {
	calls   []call
	outcome func(s *Slot) Outcome
}

func (r *recorder) Handle(s *Slot) Outcome {
	r.calls = append(r.calls, call{
		task:      s.TaskName(),
		index:     s.Ref().Index(),
		kind:      s.Kind(),
		countdown: s.Countdown(),
		payload:   append([]byte(nil), s.Payload()...),
	})
	if r.outcome != nil {
		return r.outcome(s)
	}
	return Done
}

// order returns "task/index" for every recorded call.
func (r *recorder) order() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.task + "/" + string(rune('0'+c.index))
	}
	return out
}

func mustRegister(t *testing.T, s *Scheduler, name string, h Handler, capacity, payloadSize int, opts ...TaskOption) TaskRef {
	t.Helper()
	ref, err := s.Register(name, h, capacity, payloadSize, opts...)
	require.NoError(t, err)
	return ref
}

func mustAdmit(t *testing.T, s *Scheduler, ref TaskRef, ev Event) SlotRef {
	t.Helper()
	sref, err := s.Admit(ref, ev)
	require.NoError(t, err)
	return sref
}

func mustPass(t *testing.T, s *Scheduler, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Pass())
	}
}

// tickPass raises one tick and runs the two passes it takes for the sweep
// to observe it: the first folds the flag in, the second decrements.
func tickPass(t *testing.T, s *Scheduler) {
	t.Helper()
	s.Tick()
	mustPass(t, s, 2)
}

// queueState is a deep copy of everything admission may touch.
type queueState struct {
	slots         []slot
	payloads      [][]byte
	readIdx       int
	writeIdx      int
	pendingTimers int
	status        Status
}

func captureQueue(t *testing.T, s *Scheduler, ref TaskRef) queueState {
	t.Helper()
	rec, ok := s.table.resolve(ref)
	require.True(t, ok)
	st := queueState{
		slots:         make([]slot, len(rec.slots)),
		payloads:      make([][]byte, len(rec.slots)),
		readIdx:       rec.readIdx,
		writeIdx:      rec.writeIdx,
		pendingTimers: rec.pendingTimers,
		status:        rec.status,
	}
	for i, sl := range rec.slots {
		st.payloads[i] = append([]byte(nil), sl.payload...)
		sl.payload = nil
		st.slots[i] = sl
	}
	return st
}

// slotAt returns a copy of one slot's bookkeeping.
func slotAt(t *testing.T, s *Scheduler, ref TaskRef, idx int) slot {
	t.Helper()
	rec, ok := s.table.resolve(ref)
	require.True(t, ok)
	return rec.slots[idx]
}

// testLogHandler captures log records for testing.
type testLogHandler struct {
	buf   *bytes.Buffer
	level slog.Level
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{buf: &bytes.Buffer{}, level: slog.LevelDebug}
}

func (h *testLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *testLogHandler) WithGroup(string) slog.Handler { return h }

func (h *testLogHandler) records(msg string) []map[string]any {
	var out []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil && (msg == "" || m["msg"] == msg) {
			out = append(out, m)
		}
	}
	return out
}
