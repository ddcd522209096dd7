package store

import (
	"os"
	"path/filepath"
	"testing"

	"ReviewScanner/internal/domain"
)

func rating(v float64) *float64 { return &v }

func testBatch() []domain.Review {
	return []domain.Review{
		{EntityID: "B1", RecordID: "R1", TimestampRaw: "2024-03-04", Rating: rating(5), Title: "great", Body: "love it", Verified: true, HelpfulVotes: 3},
		{EntityID: "B1", RecordID: "R2", TimestampRaw: "2024-03-05", Rating: rating(1), Title: "bad", Body: "broke"},
	}
}

func TestAppendAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.csv")
	s := New(path, nil)

	added, err := s.Append(testBatch())
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	got := records[0]
	if got.EntityID != "B1" || got.RecordID != "R1" || got.Rating == nil || *got.Rating != 5 {
		t.Fatalf("roundtrip mangled record: %+v", got)
	}
	if !got.Verified || got.HelpfulVotes != 3 {
		t.Fatalf("roundtrip lost flags: %+v", got)
	}
}

func TestAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "reviews.csv"), nil)
	if _, err := s.Append(testBatch()); err != nil {
		t.Fatalf("first append: %v", err)
	}

	added, err := s.Append(testBatch())
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if added != 0 {
		t.Fatalf("duplicate batch added %d rows", added)
	}

	records, _ := s.Load()
	if len(records) != 2 {
		t.Fatalf("table grew on duplicate batch: %d rows", len(records))
	}
}

func TestAppendPartialOverlap(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "reviews.csv"), nil)
	if _, err := s.Append(testBatch()); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	batch := append(testBatch(), domain.Review{
		EntityID: "B1", RecordID: "R3", TimestampRaw: "2024-03-06", Rating: rating(4), Title: "fine",
	})
	added, err := s.Append(batch)
	if err != nil {
		t.Fatalf("overlap append: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 new row, got %d", added)
	}
}

func TestNearDuplicatesSurvive(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "reviews.csv"), nil)

	// Same content 30 seconds apart and no upstream ids: both must persist.
	batch := []domain.Review{
		{EntityID: "B1", TimestampRaw: "2024-03-05T10:30:00Z", Rating: rating(5), Title: "Great", Body: "Same text"},
		{EntityID: "B1", TimestampRaw: "2024-03-05T10:30:30Z", Rating: rating(5), Title: "Great", Body: "Same text"},
	}
	added, err := s.Append(batch)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if added != 2 {
		t.Fatalf("near-duplicates were dropped, added=%d", added)
	}
}

func TestEmptyBatchWritesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.csv")
	s := New(path, nil)

	added, err := s.Append(nil)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if added != 0 {
		t.Fatalf("empty batch added %d", added)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty batch must not create the table file")
	}
}

func TestCorruptTableTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reviews.csv")
	if err := os.WriteFile(path, []byte("not,a\"valid\ncsv\"file,,\""), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := New(path, nil)
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("corrupt table yielded %d records", len(records))
	}

	if _, err := s.Append(testBatch()); err != nil {
		t.Fatalf("append over corrupt table: %v", err)
	}
}
