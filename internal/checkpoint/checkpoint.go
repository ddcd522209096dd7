// Package checkpoint persists the per-entity collection cursor so an
// interrupted run loses at most one page of progress.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

const fileName = "checkpoint.json"

// MaxLastIDs caps how many recent record ids are retained per entity.
const MaxLastIDs = 50

// Manager stores the checkpoint map as a JSON file inside dir.
type Manager struct {
	dir    string
	logger *slog.Logger
}

var _ ports.CheckpointStore = (*Manager)(nil)

// NewManager wires a checkpoint store rooted at dir.
func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{dir: dir, logger: logger}
}

// Load returns the persisted state, or an empty map when the file is absent
// or unparseable. Corrupt state is logged and discarded, never fatal.
func (m *Manager) Load() (domain.CheckpointState, error) {
	raw, err := os.ReadFile(filepath.Join(m.dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CheckpointState{}, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var state domain.CheckpointState
	if err := json.Unmarshal(raw, &state); err != nil {
		if m.logger != nil {
			m.logger.Warn("checkpoint unparseable, starting fresh", "dir", m.dir, "error", err)
		}
		return domain.CheckpointState{}, nil
	}
	if state == nil {
		state = domain.CheckpointState{}
	}
	return state, nil
}

// Save persists the whole map atomically, creating parent directories as
// needed. Callers invoke it after every processed page.
func (m *Manager) Save(state domain.CheckpointState) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := filepath.Join(m.dir, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Advance folds a freshly sunk page into the entity's cursor: new ids are
// prepended most-recent-first, the id list capped, and the last date taken
// from the first record of the page.
func Advance(cp domain.Checkpoint, page []domain.Review) domain.Checkpoint {
	if len(page) == 0 {
		return cp
	}

	known := make(map[string]struct{}, len(cp.LastIDs))
	for _, id := range cp.LastIDs {
		known[id] = struct{}{}
	}

	ids := make([]string, 0, MaxLastIDs)
	for _, r := range page {
		if r.RecordID == "" {
			continue
		}
		if _, ok := known[r.RecordID]; ok {
			continue
		}
		known[r.RecordID] = struct{}{}
		ids = append(ids, r.RecordID)
	}
	ids = append(ids, cp.LastIDs...)
	if len(ids) > MaxLastIDs {
		ids = ids[:MaxLastIDs]
	}
	cp.LastIDs = ids

	if raw := page[0].TimestampRaw; raw != "" {
		cp.LastDate = &raw
	}
	return cp
}
