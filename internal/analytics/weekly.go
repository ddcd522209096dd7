// Package analytics rolls the collected review table into weekly facts and
// the derived distortion / impact outputs.
package analytics

import (
	"sort"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/timeparse"
)

// Tunables parameterizes the statistical heuristics. The defaults mirror the
// historically used constants; none of them are established truths.
type Tunables struct {
	PriorMean         float64
	PriorStrength     float64
	FiveStarBaseline  float64
	VarianceCap       float64
	MinImpactWeeks    int
	RecentShiftWindow int
}

// DefaultTunables returns the standard knob settings.
func DefaultTunables() Tunables {
	return Tunables{
		PriorMean:         4.1,
		PriorStrength:     20,
		FiveStarBaseline:  0.6,
		VarianceCap:       0.5,
		MinImpactWeeks:    8,
		RecentShiftWindow: 4,
	}
}

type weekKey struct {
	entity string
	week   time.Time
}

// AggregateWeekly groups rated records into Monday-aligned weeks per entity
// and derives the cumulative series. Records with an unparseable timestamp or
// no rating are excluded from aggregation rather than failing the run, so
// counts and star shares are over rated records only.
func AggregateWeekly(records []domain.Review, t Tunables) []domain.WeeklyFact {
	groups := map[weekKey][]float64{}
	for _, r := range records {
		if r.Rating == nil {
			continue
		}
		ts, ok := timeparse.Parse(r.TimestampRaw)
		if !ok {
			continue
		}
		key := weekKey{entity: r.EntityID, week: timeparse.WeekStart(ts)}
		groups[key] = append(groups[key], *r.Rating)
	}

	facts := make([]domain.WeeklyFact, 0, len(groups))
	for key, ratings := range groups {
		facts = append(facts, domain.WeeklyFact{
			EntityID:       key.entity,
			Week:           key.week,
			AvgRating:      mean(ratings),
			ReviewCount:    len(ratings),
			RatingVariance: sampleVariance(ratings),
			FiveStarShare:  share(ratings, 5),
			OneStarShare:   share(ratings, 1),
		})
	}

	sort.Slice(facts, func(i, j int) bool {
		if facts[i].EntityID != facts[j].EntityID {
			return facts[i].EntityID < facts[j].EntityID
		}
		return facts[i].Week.Before(facts[j].Week)
	})

	// Running sums per entity; the cumulative average must always equal
	// cumulative rating sum / cumulative review count.
	var (
		current  string
		cumCount int
		cumSum   float64
	)
	for i := range facts {
		if facts[i].EntityID != current {
			current = facts[i].EntityID
			cumCount = 0
			cumSum = 0
		}
		cumCount += facts[i].ReviewCount
		cumSum += facts[i].AvgRating * float64(facts[i].ReviewCount)
		facts[i].CumulativeReviews = cumCount
		if cumCount > 0 {
			avg := cumSum / float64(cumCount)
			facts[i].CumulativeAvgRating = &avg
		}
		facts[i].BayesRating = bayesRating(facts[i], t)
	}

	return facts
}

// bayesRating shrinks a week's average toward the prior in proportion to how
// few reviews the week carries.
func bayesRating(f domain.WeeklyFact, t Tunables) *float64 {
	n := float64(f.ReviewCount)
	if n <= 0 {
		return nil
	}
	sum := f.AvgRating * n
	v := (t.PriorMean*t.PriorStrength + sum) / (t.PriorStrength + n)
	return &v
}

func share(ratings []float64, star float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	hits := 0
	for _, r := range ratings {
		if r == star {
			hits++
		}
	}
	return float64(hits) / float64(len(ratings))
}
