package usecase

import (
	"context"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

// Scheduler wires the interval driver with recurring ingestion runs.
type Scheduler struct {
	driver   ports.Scheduler
	ingest   *Ingest
	entities func() []domain.Entity
}

// NewScheduler returns a helper to start/stop recurring collection. The
// entities callback is re-evaluated each run so collection edits between
// ticks are picked up.
func NewScheduler(driver ports.Scheduler, ingest *Ingest, entities func() []domain.Entity) *Scheduler {
	return &Scheduler{driver: driver, ingest: ingest, entities: entities}
}

// Start registers the ingestion job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingest == nil {
		return nil
	}

	job := func(trigger time.Time) {
		var entities []domain.Entity
		if s.entities != nil {
			entities = s.entities()
		}
		_, _ = s.ingest.Run(ctx, entities)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
