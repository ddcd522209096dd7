package analytics

import (
	"sort"

	"ReviewScanner/internal/domain"
)

// Volatility summarizes week-to-week dispersion of the outcome and the
// average rating per entity. Variances need at least two weeks and are nil
// otherwise.
func Volatility(weekly []domain.WeeklyFact, outcome []domain.OutcomePoint) []domain.VolatilityRow {
	ratings := map[string][]float64{}
	outcomes := map[string][]float64{}
	weeks := map[string]int{}

	seen := map[weekKey]bool{}
	for _, f := range weekly {
		ratings[f.EntityID] = append(ratings[f.EntityID], f.AvgRating)
		key := weekKey{f.EntityID, f.Week}
		if !seen[key] {
			seen[key] = true
			weeks[f.EntityID]++
		}
	}
	for _, p := range outcome {
		outcomes[p.EntityID] = append(outcomes[p.EntityID], p.Outcome)
		key := weekKey{p.EntityID, p.Week}
		if !seen[key] {
			seen[key] = true
			weeks[p.EntityID]++
		}
	}

	var entities []string
	for e := range weeks {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	rows := make([]domain.VolatilityRow, 0, len(entities))
	for _, e := range entities {
		row := domain.VolatilityRow{EntityID: e, Weeks: weeks[e]}
		if rs := ratings[e]; len(rs) > 0 {
			row.MeanRating = ptr(mean(rs))
			if len(rs) >= 2 {
				row.RatingVar = ptr(sampleVariance(rs))
			}
		}
		if os := outcomes[e]; len(os) > 0 {
			row.MeanOutcome = ptr(mean(os))
			if len(os) >= 2 {
				row.OutcomeVar = ptr(sampleVariance(os))
			}
		}
		rows = append(rows, row)
	}
	return rows
}
