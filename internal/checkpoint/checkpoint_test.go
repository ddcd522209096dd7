package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ReviewScanner/internal/domain"
)

func TestLoadAbsentFile(t *testing.T) {
	t.Parallel()

	m := NewManager(t.TempDir(), nil)
	state, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("expected empty state, got %d entries", len(state))
	}
}

func TestLoadUnparseableFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt checkpoint: %v", err)
	}

	m := NewManager(dir, nil)
	state, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("corrupt checkpoint yielded %d entries", len(state))
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "data")
	m := NewManager(dir, nil)

	date := "2024-03-05"
	in := domain.CheckpointState{
		"B1": {LastIDs: []string{"R3", "R2", "R1"}, LastDate: &date},
		"B2": {LastIDs: []string{"X9"}},
	}
	if err := m.Save(in); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	out, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cp, ok := out["B1"]
	if !ok {
		t.Fatal("entity B1 missing after roundtrip")
	}
	if len(cp.LastIDs) != 3 || cp.LastIDs[0] != "R3" {
		t.Fatalf("ids mangled: %v", cp.LastIDs)
	}
	if cp.LastDate == nil || *cp.LastDate != date {
		t.Fatalf("last date mangled: %v", cp.LastDate)
	}
}

func TestAdvancePrependsAndCaps(t *testing.T) {
	t.Parallel()

	cp := domain.Checkpoint{LastIDs: []string{"R2", "R1"}}
	page := []domain.Review{
		{RecordID: "R4", TimestampRaw: "2024-03-07"},
		{RecordID: "R3", TimestampRaw: "2024-03-06"},
		{RecordID: "R2", TimestampRaw: "2024-03-05"},
		{RecordID: ""},
	}

	cp = Advance(cp, page)
	want := []string{"R4", "R3", "R2", "R1"}
	if len(cp.LastIDs) != len(want) {
		t.Fatalf("unexpected id count: %v", cp.LastIDs)
	}
	for i, id := range want {
		if cp.LastIDs[i] != id {
			t.Fatalf("id order wrong at %d: %v", i, cp.LastIDs)
		}
	}
	if cp.LastDate == nil || *cp.LastDate != "2024-03-07" {
		t.Fatalf("last date not taken from page head: %v", cp.LastDate)
	}
}

func TestAdvanceCapsAtLimit(t *testing.T) {
	t.Parallel()

	var cp domain.Checkpoint
	for i := 0; i < 3; i++ {
		page := make([]domain.Review, 30)
		for j := range page {
			page[j] = domain.Review{RecordID: fmt.Sprintf("R%d-%d", i, j)}
		}
		cp = Advance(cp, page)
	}
	if len(cp.LastIDs) != MaxLastIDs {
		t.Fatalf("expected cap at %d, got %d", MaxLastIDs, len(cp.LastIDs))
	}
	if cp.LastIDs[0] != "R2-0" {
		t.Fatalf("newest page not at the head: %s", cp.LastIDs[0])
	}
}

func TestAdvanceEmptyPageIsNoop(t *testing.T) {
	t.Parallel()

	date := "2024-03-05"
	cp := domain.Checkpoint{LastIDs: []string{"R1"}, LastDate: &date}
	got := Advance(cp, nil)
	if len(got.LastIDs) != 1 || got.LastDate == nil || *got.LastDate != date {
		t.Fatalf("empty page changed the cursor: %+v", got)
	}
}
