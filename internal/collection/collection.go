// Package collection reads the entity list driving a run: which products to
// collect and their category assignment.
package collection

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"ReviewScanner/internal/domain"
)

// Load reads a collection CSV. Expected header includes at least an entity id
// column (asin or entity_id); title, country, and category_path are optional.
func Load(path string) ([]domain.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse collection %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := headerIndex(rows[0])
	idCol, ok := idx["asin"]
	if !ok {
		if idCol, ok = idx["entity_id"]; !ok {
			return nil, fmt.Errorf("collection %s: no asin or entity_id column", path)
		}
	}

	entities := make([]domain.Entity, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		entities = append(entities, domain.Entity{
			ID:           id,
			Title:        cell(row, idx, "title"),
			Country:      cell(row, idx, "country"),
			CategoryPath: cell(row, idx, "category_path"),
		})
	}
	return entities, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
