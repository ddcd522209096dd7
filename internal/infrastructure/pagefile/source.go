// Package pagefile replays review pages captured to disk, one JSON file per
// (entity, page). It backs offline reruns and tests without a live provider.
package pagefile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/source"
)

// Source reads pages from dir following the <entity>_p<page>.json layout.
type Source struct {
	dir    string
	logger *slog.Logger
}

var _ source.Strategy = (*Source)(nil)

// New wires a page-dump source rooted at dir.
func New(dir string, logger *slog.Logger) *Source {
	return &Source{dir: dir, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *Source) Name() string {
	return "pagefile"
}

// FetchPage loads one captured page. A missing file means pagination is
// exhausted; a malformed file counts as a parse failure and yields zero
// records so the entity stops cleanly instead of failing the run.
func (s *Source) FetchPage(ctx context.Context, entityID string, page int) ([]domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_p%d.json", entityID, page))
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read page dump %s: %w", path, err)
	}

	var result source.Page
	if err := json.Unmarshal(raw, &result); err != nil {
		if s.logger != nil {
			s.logger.Warn("page dump malformed, treating as empty page", "path", path, "error", err)
		}
		return nil, nil
	}

	records := make([]domain.Review, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, rec.ToDomain(entityID))
	}
	return records, nil
}
