package tickloop

// Snapshot is a point-in-time view of the scheduler for diagnostics.
type Snapshot struct {
	RunID  string         `json:"run_id"`
	Passes uint64         `json:"passes"`
	Ticks  uint64         `json:"ticks"`
	Tasks  []TaskSnapshot `json:"tasks"`
}

// TaskSnapshot describes one task table entry.
type TaskSnapshot struct {
	Name          string         `json:"name"`
	Position      int            `json:"position"`
	Status        Status         `json:"status"`
	Emergency     bool           `json:"emergency,omitempty"`
	Capacity      int            `json:"capacity"`
	PayloadSize   int            `json:"payload_size"`
	Occupied      int            `json:"occupied"`
	PendingTimers int            `json:"pending_timers"`
	ReadIndex     int            `json:"read_index"`
	WriteIndex    int            `json:"write_index"`
	Slots         []SlotSnapshot `json:"slots,omitempty"`
}

// SlotSnapshot describes one occupied slot.
type SlotSnapshot struct {
	Index     int    `json:"index"`
	Kind      Kind   `json:"kind"`
	Countdown uint32 `json:"countdown"`
	Repeat    uint32 `json:"repeat"`
}

// Snapshot captures the table in sweep order. Passes counts completed
// passes and Ticks counts ticks consumed by the loop.
func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:  s.runID,
		Passes: s.passes,
		Ticks:  s.ticks,
		Tasks:  make([]TaskSnapshot, 0, s.table.len()),
	}
	for pos := range s.table.records {
		rec := &s.table.records[pos]
		ts := TaskSnapshot{
			Name:          rec.name,
			Position:      pos,
			Status:        rec.status,
			Emergency:     rec.emergency,
			Capacity:      len(rec.slots),
			PayloadSize:   rec.payloadSize,
			PendingTimers: rec.pendingTimers,
			ReadIndex:     rec.readIdx,
			WriteIndex:    rec.writeIdx,
		}
		for i := range rec.slots {
			sl := &rec.slots[i]
			if sl.kind == KindEmpty {
				continue
			}
			ts.Occupied++
			ts.Slots = append(ts.Slots, SlotSnapshot{
				Index:     i,
				Kind:      sl.kind,
				Countdown: sl.countdown,
				Repeat:    sl.repeat,
			})
		}
		snap.Tasks = append(snap.Tasks, ts)
	}
	return snap
}
