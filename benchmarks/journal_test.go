package benchmarks

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
	"github.com/randalmurphal/tickloop/pkg/tickloop/journal"
)

// BenchmarkMemoryStore_Save measures in-memory journal save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := journal.NewMemoryStore()
	data := snapshotBytes(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save("run-1", i, data)
	}
}

// BenchmarkSQLiteStore_Save measures SQLite journal save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()
	data := snapshotBytes(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save("run-1", i%100, data)
	}
}

// BenchmarkSQLiteStore_Latest measures fetching the newest snapshot.
func BenchmarkSQLiteStore_Latest(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()
	data := snapshotBytes(b)
	for i := 0; i < 100; i++ {
		_ = store.Save("run-1", i, data)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = store.Latest("run-1")
	}
}

// BenchmarkPass_WithJournal measures passes that journal on every tick.
func BenchmarkPass_WithJournal(b *testing.B) {
	s := tickloop.New(tickloop.WithJournal(journal.NewMemoryStore(), 1))
	for i := 0; i < tickloop.DefaultCapacity; i++ {
		ref, err := s.Register(taskName(i), done, 4, 4)
		if err != nil {
			b.Fatal(err)
		}
		_, _ = s.Admit(ref, tickloop.Periodic(3, nil))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick()
		_ = s.Pass()
	}
}

// BenchmarkSnapshotMarshal measures snapshot serialization overhead.
func BenchmarkSnapshotMarshal(b *testing.B) {
	s, _ := buildScheduler(b, tickloop.DefaultCapacity, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(s.Snapshot())
	}
}

// Helper functions

func snapshotBytes(b *testing.B) []byte {
	b.Helper()
	s, refs := buildScheduler(b, tickloop.DefaultCapacity, 8)
	for _, ref := range refs {
		_, _ = s.Admit(ref, tickloop.Periodic(5, nil))
	}
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		b.Fatal(err)
	}
	return data
}

func createSQLiteStore(b *testing.B) (*journal.SQLiteStore, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	store, err := journal.NewSQLiteStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return store, func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}
}
