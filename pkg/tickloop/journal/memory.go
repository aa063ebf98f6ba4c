package journal

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory journal for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[int]entry // runID -> seq -> entry
	closed bool
}

type entry struct {
	data      []byte
	timestamp time.Time
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[int]entry),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(runID string, seq int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if m.data[runID] == nil {
		m.data[runID] = make(map[int]entry)
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[runID][seq] = entry{data: stored, timestamp: time.Now().UTC()}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(runID string, seq int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	e, ok := m.data[runID][seq]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.data), nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(runID string) (Info, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Info{}, nil, ErrStoreClosed
	}
	run := m.data[runID]
	if len(run) == 0 {
		return Info{}, nil, ErrNotFound
	}
	best := -1
	for seq := range run {
		if best < 0 || seq > best {
			best = seq
		}
	}
	e := run[best]
	return info(runID, best, e), clone(e.data), nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	run := m.data[runID]
	infos := make([]Info, 0, len(run))
	for seq, e := range run {
		infos = append(infos, info(runID, seq, e))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})
	return infos, nil
}

// Runs implements Store.
func (m *MemoryStore) Runs() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	runs := make([]string, 0, len(m.data))
	for id, run := range m.data {
		if len(run) > 0 {
			runs = append(runs, id)
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

func info(runID string, seq int, e entry) Info {
	return Info{
		RunID:     runID,
		Sequence:  seq,
		Timestamp: e.timestamp,
		Size:      int64(len(e.data)),
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
