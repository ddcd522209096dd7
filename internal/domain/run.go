package domain

import "time"

// Checkpoint is the durable cursor for one entity: the most recent record ids
// (most-recent-first, capped) and the newest timestamp seen.
type Checkpoint struct {
	LastIDs  []string `json:"last_ids"`
	LastDate *string  `json:"last_date"`
}

// CheckpointState maps entity id to its cursor.
type CheckpointState map[string]Checkpoint

// EntityOutcome records how ingestion ended for one entity.
type EntityOutcome struct {
	EntityID  string
	Category  string
	State     EntityState
	Pages     int
	RowsAdded int
	Err       string
}

// RunSummary aggregates one ingestion run for the ledger.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Entities   int
	Pages      int
	RowsAdded  int
}

// RunResult is what a single orchestrated run hands back to callers. The
// durable table remains the source of truth; Records only reflects what this
// run saw.
type RunResult struct {
	Records     []Review
	Outcomes    []EntityOutcome
	PerCategory map[string]int
	Pages       int
	RowsAdded   int
}
