package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/timeparse"
)

var outcomeColumns = []string{
	"weekly_sales", "units_sold", "units_week", "sales_units",
	"sales", "sold", "qty", "quantity", "units",
}

// LoadOutcome reads an external outcome CSV with loosely named columns,
// detects the entity, date and outcome columns by name, and sums the outcome
// per entity and Monday-aligned week.
func LoadOutcome(path string) ([]domain.OutcomePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open outcome file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read outcome file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	entityCol := findColumn(header, []string{"asin", "entity_id"}, []string{"asin"})
	if entityCol < 0 {
		return nil, fmt.Errorf("outcome file %s: no entity column", path)
	}
	dateCol := findColumn(header,
		[]string{"date", "week_start", "week", "timestamp"},
		[]string{"date", "week", "timestamp"})
	if dateCol < 0 {
		return nil, fmt.Errorf("outcome file %s: no date column", path)
	}
	outcomeCol := findColumn(header, outcomeColumns, nil)
	if outcomeCol < 0 {
		return nil, fmt.Errorf("outcome file %s: no outcome column", path)
	}

	type sumKey struct {
		entity string
		week   time.Time
	}
	sums := map[sumKey]float64{}
	for _, row := range rows[1:] {
		if entityCol >= len(row) || dateCol >= len(row) || outcomeCol >= len(row) {
			continue
		}
		entity := strings.TrimSpace(row[entityCol])
		if entity == "" {
			continue
		}
		ts, ok := timeparse.Parse(strings.TrimSpace(row[dateCol]))
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[outcomeCol]), 64)
		if err != nil {
			continue
		}
		sums[sumKey{entity, timeparse.WeekStart(ts)}] += v
	}

	points := make([]domain.OutcomePoint, 0, len(sums))
	for k, v := range sums {
		points = append(points, domain.OutcomePoint{EntityID: k.entity, Week: k.week, Outcome: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].EntityID != points[j].EntityID {
			return points[i].EntityID < points[j].EntityID
		}
		return points[i].Week.Before(points[j].Week)
	})
	return points, nil
}

// findColumn returns the index of the first header matching one of the exact
// names, falling back to a substring match when none is exact.
func findColumn(header []string, exact []string, substrings []string) int {
	for _, name := range exact {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	for _, part := range substrings {
		for i, h := range header {
			if strings.Contains(h, part) {
				return i
			}
		}
	}
	return -1
}
