// Package store implements the durable review table: a single delimited file
// with a header row, updated only through atomic replace so a concurrent
// reader never observes a half-written table.
package store

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/identity"
	"ReviewScanner/internal/ports"
)

var header = []string{
	"entity_id", "record_id", "timestamp_raw", "rating", "title", "body",
	"verified", "helpful_votes", "near_dup_min_bucket", "content_hash_200",
}

// CSVStore persists review records at a fixed path.
type CSVStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.ReviewStore = (*CSVStore)(nil)

// New wires a store for the given table path.
func New(path string, logger *slog.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Path exposes the table location for downstream readers.
func (s *CSVStore) Path() string {
	return s.path
}

// Append merges the batch into the persisted table, keeping the first-seen
// copy per identity key (existing rows before new ones), and returns the
// number of rows added. An empty batch performs no write. Only exact
// identity-key collisions are dropped; near-duplicates survive.
func (s *CSVStore) Append(batch []domain.Review) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	existing, err := s.Load()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(existing)+len(batch))
	combined := make([]domain.Review, 0, len(existing)+len(batch))
	for _, r := range existing {
		key := identity.Key(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		combined = append(combined, r)
	}
	for _, r := range batch {
		key := identity.Key(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		combined = append(combined, r)
	}

	if err := s.write(combined); err != nil {
		return 0, err
	}
	return len(combined) - len(existing), nil
}

// Load reads the persisted table. A missing, empty, or unreadable file is
// treated as an empty table: corrupt prior writes must not kill a run.
func (s *CSVStore) Load() ([]domain.Review, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open table %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		s.warn("table unreadable, treating as empty", "path", s.path, "error", err)
		return nil, nil
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]domain.Review, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(header) {
			continue
		}
		records = append(records, rowToReview(row))
	}
	return records, nil
}

func (s *CSVStore) write(records []domain.Review) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(reviewToRow(r)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

func (s *CSVStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func rowToReview(row []string) domain.Review {
	r := domain.Review{
		EntityID:         row[0],
		RecordID:         row[1],
		TimestampRaw:     row[2],
		Title:            row[4],
		Body:             row[5],
		NearDupMinBucket: row[8],
		ContentHash200:   row[9],
	}
	if row[3] != "" {
		if v, err := strconv.ParseFloat(row[3], 64); err == nil {
			r.Rating = &v
		}
	}
	if v, err := strconv.ParseBool(row[6]); err == nil {
		r.Verified = v
	}
	if v, err := strconv.Atoi(row[7]); err == nil {
		r.HelpfulVotes = v
	}
	return r
}

func reviewToRow(r domain.Review) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'g', -1, 64)
	}
	return []string{
		r.EntityID,
		r.RecordID,
		r.TimestampRaw,
		rating,
		r.Title,
		r.Body,
		strconv.FormatBool(r.Verified),
		strconv.Itoa(r.HelpfulVotes),
		r.NearDupMinBucket,
		r.ContentHash200,
	}
}
