// Package store tests for collection load and persistence.
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestStore(slot Slot) *Store {
	return New(slot, WithIDGenerator(sequence()), WithClock(fixedClock))
}

// =====================================================
// Load Tests
// =====================================================

// TestStore_Load_absent verifies a missing document is an empty collection.
func TestStore_Load_absent(t *testing.T) {
	s := newTestStore(NewMemorySlot(0))

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Load() = %v, want empty collection", records)
	}
}

// TestStore_Load_corrupt verifies unparseable documents are reported, not fatal.
func TestStore_Load_corrupt(t *testing.T) {
	for _, doc := range []string{`"not json"`, `not json`, `null`, `{"a":1}`, ``} {
		slot := NewMemorySlotWith(doc)
		s := newTestStore(slot)

		records, err := s.Load(context.Background())
		if !apperrors.Is(err, apperrors.ErrCorruptStore) {
			t.Errorf("Load(%q) error = %v, want CORRUPT_STORE", doc, err)
		}
		if records == nil || len(records) != 0 || s.Len() != 0 {
			t.Errorf("Load(%q) = %v, want empty collection", doc, records)
		}
		if slot.Contents() != doc || slot.Writes() != 0 {
			t.Errorf("Load(%q) must not overwrite the document", doc)
		}
	}
}

// TestStore_Load_legacy verifies repair runs on load.
func TestStore_Load_legacy(t *testing.T) {
	s := newTestStore(NewMemorySlotWith(`[{"shopName":"A","date":"2023-01-01","imageBefore":"x"}]`))

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "id-1" || records[0].ImagesBefore[0] != "x" {
		t.Errorf("Load() = %+v", records)
	}
	if _, ok := s.Get("id-1"); !ok {
		t.Error("Get() should find the repaired record")
	}
}

// TestStore_Load_persistsRepair verifies repaired records are written back
// once and a clean document is not rewritten.
func TestStore_Load_persistsRepair(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlotWith(`[{"shopName":"A","imageBefore":"x"}]`)

	if _, err := newTestStore(slot).Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if slot.Writes() != 1 {
		t.Fatalf("Writes() = %d, want 1", slot.Writes())
	}
	persisted := slot.Contents()

	if _, err := newTestStore(slot).Load(ctx); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if slot.Writes() != 1 || slot.Contents() != persisted {
		t.Error("clean document should not be rewritten")
	}
}

// TestStore_Load_stableAcrossOpens verifies ids and defaulted dates survive
// reopening the same file slot on a later day.
func TestStore_Load_stableAcrossOpens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first := openAndLoad(t, dir, fixedClock())
	second := openAndLoad(t, dir, fixedClock().AddDate(0, 0, 3))

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Load() sizes = %d, %d", len(first), len(second))
	}
	if first[0].ID == "" || first[0].ID != second[0].ID {
		t.Errorf("repaired id changed between loads: %q vs %q", first[0].ID, second[0].ID)
	}
	if first[0].SquishDate != "2024-05-01" || second[0].SquishDate != first[0].SquishDate {
		t.Errorf("defaulted squishDate changed: %q vs %q", first[0].SquishDate, second[0].SquishDate)
	}
	if second[0].RecordDate != first[0].RecordDate {
		t.Errorf("defaulted recordDate changed: %q vs %q", first[0].RecordDate, second[0].RecordDate)
	}
}

// openAndLoad seeds dir on first use and loads it with a fresh slot.
func openAndLoad(t *testing.T, dir string, now time.Time) []models.Record {
	t.Helper()
	slot, err := OpenFileSlot(dir, "", 0)
	if err != nil {
		t.Fatalf("OpenFileSlot() failed: %v", err)
	}
	defer slot.Close()

	ctx := context.Background()
	if _, ok, _ := slot.Read(ctx); !ok {
		if err := slot.Write(ctx, []byte(`[{"shopName":"A","imageBefore":"x"}]`)); err != nil {
			t.Fatalf("seed Write() failed: %v", err)
		}
	}

	records, err := New(slot, WithClock(func() time.Time { return now })).Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return records
}

// TestStore_Load_repairOverQuota verifies a full slot does not fail the load.
func TestStore_Load_repairOverQuota(t *testing.T) {
	doc := `[{"shopName":"A","imageBefore":"x"}]`
	slot := &MemorySlot{data: []byte(doc), exists: true, quota: int64(len(doc))}
	s := newTestStore(slot)

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "id-1" {
		t.Errorf("Load() = %+v", records)
	}
	if slot.Writes() != 0 || slot.Contents() != doc {
		t.Error("rejected write should leave the document as stored")
	}
}

// TestStore_roundTrip verifies load, replace and load again is byte-stable.
func TestStore_roundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlotWith(`[{"shopName":"A","date":"2023-01-01","imageBefore":"x"},{"id":"b","rating":2}]`)
	s := newTestStore(slot)

	first, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := s.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}
	persisted := slot.Contents()

	second, err := New(slot, WithClock(fixedClock)).Load(ctx)
	if err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if err := s.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("second ReplaceAll() failed: %v", err)
	}
	if slot.Contents() != persisted {
		t.Errorf("document drifted:\n%s\n%s", persisted, slot.Contents())
	}
}

// =====================================================
// ReplaceAll Tests
// =====================================================

// TestStore_ReplaceAll_capacity verifies quota failures keep in-memory state.
func TestStore_ReplaceAll_capacity(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(10)
	s := newTestStore(slot)

	records := []models.Record{{ID: "a", ShopName: "A", ImagesBefore: []string{"x"}}}
	err := s.ReplaceAll(ctx, records)
	if !apperrors.Is(err, apperrors.ErrStoreCapacity) {
		t.Fatalf("ReplaceAll() error = %v, want STORE_CAPACITY", err)
	}
	if s.Len() != 1 {
		t.Error("in-memory collection should keep the new records")
	}
	if slot.Writes() != 0 {
		t.Error("rejected write should not reach the slot")
	}
}

// TestStore_ReplaceAll_copies verifies the store does not alias caller slices.
func TestStore_ReplaceAll_copies(t *testing.T) {
	s := newTestStore(NewMemorySlot(0))
	records := []models.Record{{ID: "a", ImagesBefore: []string{"x"}}}

	if err := s.ReplaceAll(context.Background(), records); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}
	records[0].ImagesBefore[0] = "changed"

	got, _ := s.Get("a")
	if got.ImagesBefore[0] != "x" {
		t.Error("store shares caller's image slice")
	}
}

// TestStore_ReplaceAll_canceled verifies a cancelled write changes nothing.
func TestStore_ReplaceAll_canceled(t *testing.T) {
	slot := NewMemorySlot(0)
	s := newTestStore(slot)
	if err := s.ReplaceAll(context.Background(), []models.Record{{ID: "a"}}); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.ReplaceAll(ctx, []models.Record{{ID: "a"}, {ID: "b"}})
	if err != context.Canceled {
		t.Fatalf("ReplaceAll() error = %v, want context.Canceled", err)
	}
	if s.Len() != 1 || slot.Writes() != 1 {
		t.Errorf("cancelled ReplaceAll applied: len=%d writes=%d", s.Len(), slot.Writes())
	}
}
