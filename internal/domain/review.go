package domain

import "time"

// Review is a core entity describing a single collected review record.
type Review struct {
	EntityID     string
	RecordID     string
	TimestampRaw string
	Rating       *float64
	Title        string
	Body         string
	Verified     bool
	HelpfulVotes int

	// Derived analysis tags; they never participate in deduplication.
	NearDupMinBucket string
	ContentHash200   string
}

// Valid reports whether the record may enter the store.
func (r Review) Valid() bool {
	return r.EntityID != ""
}

// EntityState enumerates per-entity ingestion milestones.
type EntityState string

const (
	StatePending        EntityState = "pending"
	StateFetchingPage   EntityState = "fetching_page"
	StateParsing        EntityState = "parsing"
	StateSinking        EntityState = "sinking"
	StateDone           EntityState = "done"
	StateStoppedByLimit EntityState = "stopped_by_limit"
	StateStoppedByError EntityState = "stopped_by_error"
)

// WeeklyFact aggregates one entity over one Monday-aligned week.
type WeeklyFact struct {
	EntityID            string
	Week                time.Time
	AvgRating           float64
	ReviewCount         int
	RatingVariance      float64
	FiveStarShare       float64
	OneStarShare        float64
	CumulativeReviews   int
	CumulativeAvgRating *float64
	BayesRating         *float64
}

// DistortionScore holds the normalized anomaly components for one entity.
// Entities observed for fewer than three weeks carry nil components and a
// nil probability.
type DistortionScore struct {
	EntityID          string
	Burstiness        *float64
	RecentShift       *float64
	Extremeness       *float64
	DriftVsCumulative *float64
	Probability       *float64
	ObservedWeeks     int
}

// ImpactType distinguishes correlation alignments.
type ImpactType string

const (
	ImpactContemporaneous ImpactType = "contemporaneous"
	ImpactLag1            ImpactType = "lag1"
)

// ImpactRow is a per-entity correlation between a weekly metric and the
// external outcome series.
type ImpactRow struct {
	EntityID string
	Metric   string
	Type     ImpactType
	Corr     float64
	Pairs    int
}

// PooledImpactRow is a correlation computed across all entities after
// within-entity demeaning.
type PooledImpactRow struct {
	Metric string
	Corr   float64
	Pairs  int
}

// OutcomePoint is one week of the external outcome series (e.g. sales).
type OutcomePoint struct {
	EntityID string
	Week     time.Time
	Outcome  float64
}

// VolatilityRow summarizes weekly dispersion for one entity.
type VolatilityRow struct {
	EntityID    string
	Weeks       int
	OutcomeVar  *float64
	RatingVar   *float64
	MeanOutcome *float64
	MeanRating  *float64
}

// Entity is one subject of collection as listed in the collection file.
type Entity struct {
	ID           string
	Title        string
	Country      string
	CategoryPath string
}
