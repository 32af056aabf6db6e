package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stemline/internal/export"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := export.RunRecord{
		TaskID:          "export_ab12cd34_1700000000",
		Status:          export.StatusCompletedWithErrors,
		SnapshotCount:   3,
		ExportedCount:   2,
		FailedSnapshots: []string{"Drums"},
		OutputPath:      "/tmp/stems",
		DurationSeconds: 42.5,
		Error:           "export completed with errors",
		CreatedAt:       time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt:     time.Date(2026, 2, 1, 10, 1, 0, 0, time.UTC),
	}
	if err := store.Record(record); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ID == "" {
		t.Error("entry should get a generated id")
	}
	if entry.TaskID != record.TaskID || entry.Status != record.Status {
		t.Errorf("identity mismatch: %+v", entry)
	}
	if len(entry.FailedSnapshots) != 1 || entry.FailedSnapshots[0] != "Drums" {
		t.Errorf("failed snapshots mismatch: %v", entry.FailedSnapshots)
	}
	if !entry.CreatedAt.Equal(record.CreatedAt) || !entry.CompletedAt.Equal(record.CompletedAt) {
		t.Errorf("timestamps mismatch: %+v", entry)
	}
	if entry.DurationSeconds != 42.5 {
		t.Errorf("duration mismatch: %v", entry.DurationSeconds)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.Insert(ctx, Entry{
			TaskID:    string(rune('a' + i)),
			Status:    export.StatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].TaskID != "e" || entries[1].TaskID != "d" {
		t.Errorf("order wrong: %s, %s", entries[0].TaskID, entries[1].TaskID)
	}
}

func TestGetAndRemoveByTaskID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, Entry{TaskID: "t1", Status: export.StatusCancelled, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entry, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil || entry.Status != export.StatusCancelled {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if err := store.Remove(ctx, "t1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if entry, _ := store.Get(ctx, "t1"); entry != nil {
		t.Errorf("entry survived removal: %+v", entry)
	}
	// Unknown removals are no-ops.
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Errorf("Remove unknown: %v", err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runs := []Entry{
		{TaskID: "a", Status: export.StatusCompleted, ExportedCount: 3, CreatedAt: time.Now()},
		{TaskID: "b", Status: export.StatusCompleted, ExportedCount: 2, CreatedAt: time.Now()},
		{TaskID: "c", Status: export.StatusFailed, CreatedAt: time.Now()},
		{TaskID: "d", Status: export.StatusCompletedWithErrors, ExportedCount: 1, CreatedAt: time.Now()},
		{TaskID: "e", Status: export.StatusCancelled, CreatedAt: time.Now()},
	}
	for _, run := range runs {
		if err := store.Insert(ctx, run); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{TotalRuns: 5, CompletedRuns: 2, FailedRuns: 2, CancelledRuns: 1, ExportedFiles: 6}
	if stats != want {
		t.Errorf("got %+v, want %+v", stats, want)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Insert(ctx, Entry{TaskID: "a", Status: export.StatusCompleted, CreatedAt: time.Now()})
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries survived clear: %d", len(entries))
	}
}
