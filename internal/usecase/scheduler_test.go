package usecase

import (
	"context"
	"testing"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

var _ ports.Scheduler = (*manualDriver)(nil)

func (d *manualDriver) Start(ctx context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(ctx context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsIngestOnTick(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string][][]domain.Review{
		"B1": {{record("B1", "R1", "2024-03-04")}},
	}}
	ingest, reviewStore, _, _, _ := newTestIngest(t, src, 500)

	driver := &manualDriver{}
	sched := NewScheduler(driver, ingest, func() []domain.Entity {
		return []domain.Entity{{ID: "B1"}}
	})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if driver.job == nil {
		t.Fatal("job was not registered with the driver")
	}

	driver.job(time.Now())

	records, _ := reviewStore.Load()
	if len(records) != 1 {
		t.Fatalf("tick did not ingest: %d rows", len(records))
	}

	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if !driver.stopped {
		t.Fatal("driver was not stopped")
	}
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(nil, nil, nil)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
