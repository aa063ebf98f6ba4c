package tickloop

// DefaultCapacity is the task table size used when WithCapacity is not given.
const DefaultCapacity = 15

// TaskRef is a stable handle to a registered task.
// It survives the compaction caused by removing other tasks and stops
// resolving once its own task is removed.
type TaskRef struct {
	id  uint32
	gen uint32
}

// IsZero reports whether r was never issued.
func (r TaskRef) IsZero() bool {
	return r.gen == 0
}

// handle maps a TaskRef id to the record's current table position.
type handle struct {
	gen  uint32
	pos  int
	live bool
}

// table is the fixed-capacity, ordered task registry.
// records is kept compact: positions [0, len) are live, in sweep order.
type table struct {
	records []taskRecord
	handles []handle
	free    []uint32
}

func newTable(capacity int) table {
	t := table{
		records: make([]taskRecord, 0, capacity),
		handles: make([]handle, capacity),
		free:    make([]uint32, capacity),
	}
	for i := range t.handles {
		t.handles[i].gen = 1
		// Pop order hands out ids 0, 1, 2, ...
		t.free[i] = uint32(capacity - 1 - i)
	}
	return t
}

func (t *table) len() int { return len(t.records) }

func (t *table) cap() int { return cap(t.records) }

// insert places rec at the end of the table, or after the last emergency
// task when rec is itself an emergency task.
func (t *table) insert(rec taskRecord) (TaskRef, error) {
	if len(t.records) == cap(t.records) {
		return TaskRef{}, ErrCapacityExceeded
	}
	id := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	rec.id = id

	pos := len(t.records)
	if rec.emergency {
		pos = 0
		for pos < len(t.records) && t.records[pos].emergency {
			pos++
		}
	}
	t.records = t.records[:len(t.records)+1]
	copy(t.records[pos+1:], t.records[pos:len(t.records)-1])
	t.records[pos] = rec
	t.reindex(pos)

	h := &t.handles[id]
	h.live = true
	return TaskRef{id: id, gen: h.gen}, nil
}

// remove compacts the table over the record behind ref.
func (t *table) remove(ref TaskRef) error {
	pos, ok := t.position(ref)
	if !ok {
		return ErrStaleTask
	}
	n := len(t.records)
	copy(t.records[pos:], t.records[pos+1:])
	t.records[n-1] = taskRecord{}
	t.records = t.records[:n-1]
	t.reindex(pos)

	h := &t.handles[ref.id]
	h.live = false
	h.gen++
	if h.gen == 0 {
		h.gen = 1
	}
	t.free = append(t.free, ref.id)
	return nil
}

// reindex refreshes handle positions for records at or after pos.
func (t *table) reindex(pos int) {
	for i := pos; i < len(t.records); i++ {
		t.handles[t.records[i].id].pos = i
	}
}

func (t *table) position(ref TaskRef) (int, bool) {
	if ref.gen == 0 || int(ref.id) >= len(t.handles) {
		return 0, false
	}
	h := t.handles[ref.id]
	if !h.live || h.gen != ref.gen {
		return 0, false
	}
	return h.pos, true
}

func (t *table) resolve(ref TaskRef) (*taskRecord, bool) {
	pos, ok := t.position(ref)
	if !ok {
		return nil, false
	}
	return &t.records[pos], true
}

// refAt returns the handle of the record at pos.
func (t *table) refAt(pos int) TaskRef {
	id := t.records[pos].id
	return TaskRef{id: id, gen: t.handles[id].gen}
}
