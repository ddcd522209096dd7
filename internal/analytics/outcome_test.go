package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeOutcomeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write outcome file: %v", err)
	}
	return path
}

func TestLoadOutcomeSumsPerWeek(t *testing.T) {
	t.Parallel()

	path := writeOutcomeFile(t, "asin,date,weekly_sales\n"+
		"B1,2024-01-02,10\n"+
		"B1,2024-01-03,5\n"+
		"B1,2024-01-09,7\n"+
		"B2,2024-01-02,2\n")

	points, err := LoadOutcome(path)
	if err != nil {
		t.Fatalf("LoadOutcome error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	first := points[0]
	if first.EntityID != "B1" || first.Outcome != 15 {
		t.Fatalf("same-week rows not summed: %+v", first)
	}
	if !first.Week.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week not Monday-aligned: %v", first.Week)
	}
}

func TestLoadOutcomeDetectsLooseColumns(t *testing.T) {
	t.Parallel()

	path := writeOutcomeFile(t, "Product ASIN,Week,units_sold\n"+
		"B1,2024-01-02,4\n")

	points, err := LoadOutcome(path)
	if err != nil {
		t.Fatalf("LoadOutcome error: %v", err)
	}
	if len(points) != 1 || points[0].Outcome != 4 {
		t.Fatalf("loose headers not detected: %+v", points)
	}
}

func TestLoadOutcomeSkipsBadRows(t *testing.T) {
	t.Parallel()

	path := writeOutcomeFile(t, "asin,date,sales\n"+
		",2024-01-02,4\n"+
		"B1,not-a-date,4\n"+
		"B1,2024-01-02,n/a\n"+
		"B1,2024-01-02,3\n")

	points, err := LoadOutcome(path)
	if err != nil {
		t.Fatalf("LoadOutcome error: %v", err)
	}
	if len(points) != 1 || points[0].Outcome != 3 {
		t.Fatalf("bad rows not skipped: %+v", points)
	}
}

func TestLoadOutcomeMissingColumns(t *testing.T) {
	t.Parallel()

	path := writeOutcomeFile(t, "foo,bar\n1,2\n")
	if _, err := LoadOutcome(path); err == nil {
		t.Fatal("expected an error for undetectable columns")
	}
}
