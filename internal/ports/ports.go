package ports

import (
	"context"
	"time"

	"ReviewScanner/internal/domain"
)

// ReviewSource pulls one page of raw review records for an entity. An empty
// slice with a nil error means no further pages exist.
type ReviewSource interface {
	FetchPage(ctx context.Context, entityID string, page int) ([]domain.Review, error)
}

// ReviewStore appends a batch into the durable table, dropping exact
// duplicates, and reports how many rows were actually added.
type ReviewStore interface {
	Append(batch []domain.Review) (int, error)
}

// CheckpointStore persists per-entity ingestion cursors.
type CheckpointStore interface {
	Load() (domain.CheckpointState, error)
	Save(state domain.CheckpointState) error
}

// RunLedger records completed runs and their per-entity outcomes for audit.
type RunLedger interface {
	RecordRun(ctx context.Context, summary domain.RunSummary) (int64, error)
	RecordEntity(ctx context.Context, runID int64, outcome domain.EntityOutcome) error
}

// Notifier delivers a human-readable run summary to an outbound channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when recurring ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
