// Package journal persists scheduler snapshots for post-mortem inspection.
//
// A journal is append-only per run: the scheduler saves a JSON snapshot every
// N consumed ticks, numbered by a per-run sequence. Nothing is restored from
// it; scheduler state is never reloaded.
package journal

import (
	"errors"
	"time"
)

// Store persists snapshots keyed by (runID, sequence).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a snapshot for a run.
	// Overwrites if an entry for (runID, seq) already exists.
	Save(runID string, seq int, data []byte) error

	// Load retrieves one snapshot.
	// Returns ErrNotFound if the entry doesn't exist.
	Load(runID string, seq int) ([]byte, error)

	// Latest retrieves the snapshot with the highest sequence for a run.
	// Returns ErrNotFound if the run has no entries.
	Latest(runID string) (Info, []byte, error)

	// List returns metadata for all snapshots of a run, ordered by sequence.
	// Returns empty slice (not error) if run has no entries.
	List(runID string) ([]Info, error)

	// Runs returns the IDs of every run with at least one entry, sorted.
	Runs() ([]string, error)

	// DeleteRun removes all snapshots for a run.
	// Returns nil if run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the snapshot.
type Info struct {
	RunID     string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for journal operations.
var (
	// ErrNotFound indicates a journal entry doesn't exist.
	ErrNotFound = errors.New("journal entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
