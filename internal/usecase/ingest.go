package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReviewScanner/internal/checkpoint"
	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/identity"
	"ReviewScanner/internal/ports"
)

// IngestDeps wires all driven adapters into the collection pipeline.
type IngestDeps struct {
	Source      ports.ReviewSource
	Store       ports.ReviewStore
	Checkpoints ports.CheckpointStore
	Ledger      ports.RunLedger
	Notifier    ports.Notifier
	Logger      *slog.Logger

	MaxRecordsPerEntity int
}

// Ingest orchestrates pull-by-entity, page-by-page collection. Entities are
// processed strictly one at a time: the durable table and the checkpoint file
// are shared single-writer resources and serializing avoids racing their
// atomic-replace steps.
type Ingest struct {
	source      ports.ReviewSource
	store       ports.ReviewStore
	checkpoints ports.CheckpointStore
	ledger      ports.RunLedger
	notifier    ports.Notifier
	logger      *slog.Logger

	maxPerEntity int
}

// NewIngest constructs the orchestration component.
func NewIngest(deps IngestDeps) *Ingest {
	maxPerEntity := deps.MaxRecordsPerEntity
	if maxPerEntity <= 0 {
		maxPerEntity = 500
	}

	return &Ingest{
		source:       deps.Source,
		store:        deps.Store,
		checkpoints:  deps.Checkpoints,
		ledger:       deps.Ledger,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		maxPerEntity: maxPerEntity,
	}
}

// Run collects reviews for the given entities. One bad entity never kills the
// run: a failed fetch abandons the entity and the next one proceeds. Transient
// transport errors are already retried inside the source, so a failure seen
// here is persistent. The returned aggregate is for immediate use; the durable
// table remains the source of truth.
func (p *Ingest) Run(ctx context.Context, entities []domain.Entity) (domain.RunResult, error) {
	result := domain.RunResult{PerCategory: map[string]int{}}
	if p.source == nil {
		return result, fmt.Errorf("no review source configured")
	}

	state := domain.CheckpointState{}
	if p.checkpoints != nil {
		loaded, err := p.checkpoints.Load()
		if err != nil {
			return result, fmt.Errorf("load checkpoint: %w", err)
		}
		state = loaded
	}

	startedAt := time.Now().UTC()
	for _, entity := range dedupeEntities(entities) {
		outcome, records := p.runEntity(ctx, entity, state)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Records = append(result.Records, records...)
		result.Pages += outcome.Pages
		result.RowsAdded += outcome.RowsAdded

		category := entity.CategoryPath
		if category == "" {
			category = "unknown"
		}
		result.PerCategory[category] += len(records)

		if ctx.Err() != nil {
			break
		}
	}

	p.record(ctx, startedAt, result)
	return result, nil
}

func (p *Ingest) runEntity(ctx context.Context, entity domain.Entity, state domain.CheckpointState) (domain.EntityOutcome, []domain.Review) {
	outcome := domain.EntityOutcome{
		EntityID: entity.ID,
		Category: entity.CategoryPath,
		State:    domain.StatePending,
	}

	cp := state[entity.ID]
	seen := make(map[string]struct{}, len(cp.LastIDs))
	for _, id := range cp.LastIDs {
		seen[id] = struct{}{}
	}

	var collected []domain.Review
	fetched := 0
	for page := 1; ; page++ {
		outcome.State = domain.StateFetchingPage
		pageRecords, err := p.source.FetchPage(ctx, entity.ID, page)
		if err != nil {
			p.warn("abandoning entity after fetch failure",
				"entity", entity.ID, "page", page, "error", err)
			outcome.State = domain.StateStoppedByError
			outcome.Err = err.Error()
			return outcome, collected
		}

		outcome.State = domain.StateParsing
		if len(pageRecords) == 0 {
			outcome.State = domain.StateDone
			return outcome, collected
		}
		outcome.Pages++

		fresh := p.filterFresh(entity.ID, pageRecords, seen)
		if len(fresh) == 0 {
			// Every record on this page was committed by an earlier run.
			// Pagination ends on an empty page, not a stale one, so keep
			// walking; the append sink dedupes anything re-read.
			p.debug("page already committed", "entity", entity.ID, "page", page)
			continue
		}
		if remaining := p.maxPerEntity - fetched; len(fresh) > remaining {
			fresh = fresh[:remaining]
		}

		outcome.State = domain.StateSinking
		for i := range fresh {
			identity.Apply(&fresh[i])
		}

		added := 0
		if p.store != nil {
			added, err = p.store.Append(fresh)
			if err != nil {
				p.warn("sink failed, abandoning entity", "entity", entity.ID, "page", page, "error", err)
				outcome.State = domain.StateStoppedByError
				outcome.Err = err.Error()
				return outcome, collected
			}
		}

		cp = checkpoint.Advance(cp, fresh)
		state[entity.ID] = cp
		if p.checkpoints != nil {
			if err := p.checkpoints.Save(state); err != nil {
				p.warn("checkpoint save failed, abandoning entity",
					"entity", entity.ID, "page", page, "error", err)
				outcome.State = domain.StateStoppedByError
				outcome.Err = err.Error()
				return outcome, collected
			}
		}

		collected = append(collected, fresh...)
		fetched += len(fresh)
		outcome.RowsAdded += added

		p.debug("page sunk", "entity", entity.ID, "page", page,
			"fresh", len(fresh), "added", added, "fetched", fetched)

		if fetched >= p.maxPerEntity {
			outcome.State = domain.StateStoppedByLimit
			return outcome, collected
		}
	}
}

// filterFresh drops schema-violating records at the boundary and records that
// were already committed (ids present in the checkpoint or seen this run).
// Records without an upstream id always pass; the store's identity key is
// what protects them from exact duplication.
func (p *Ingest) filterFresh(entityID string, records []domain.Review, seen map[string]struct{}) []domain.Review {
	fresh := make([]domain.Review, 0, len(records))
	for _, r := range records {
		if !r.Valid() {
			p.warn("rejecting record without entity id", "entity", entityID)
			continue
		}
		if r.RecordID != "" {
			if _, ok := seen[r.RecordID]; ok {
				continue
			}
			seen[r.RecordID] = struct{}{}
		}
		fresh = append(fresh, r)
	}
	return fresh
}

func (p *Ingest) record(ctx context.Context, startedAt time.Time, result domain.RunResult) {
	summary := domain.RunSummary{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Entities:   len(result.Outcomes),
		Pages:      result.Pages,
		RowsAdded:  result.RowsAdded,
	}

	if p.ledger != nil {
		runID, err := p.ledger.RecordRun(ctx, summary)
		if err != nil {
			p.warn("run ledger write failed", "error", err)
		} else {
			for _, outcome := range result.Outcomes {
				if err := p.ledger.RecordEntity(ctx, runID, outcome); err != nil {
					p.warn("run ledger entity write failed", "entity", outcome.EntityID, "error", err)
				}
			}
		}
	}

	if p.notifier != nil {
		msg := fmt.Sprintf("collection finished: entities=%d pages=%d new_rows=%d",
			summary.Entities, summary.Pages, summary.RowsAdded)
		if err := p.notifier.PublishSummary(ctx, msg); err != nil {
			p.warn("notify failed", "error", err)
		}
	}
}

func dedupeEntities(entities []domain.Entity) []domain.Entity {
	seen := make(map[string]struct{}, len(entities))
	out := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (p *Ingest) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Ingest) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
