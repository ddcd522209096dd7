package analytics

import (
	"sort"
	"time"

	"ReviewScanner/internal/domain"
)

// impactMetrics is the fixed list of weekly metrics correlated against the
// outcome series.
var impactMetrics = []string{
	"avg_rating_week",
	"reviews_count_week",
	"p5_share_week",
	"bayes_rating_week",
}

type masterRow struct {
	entityID string
	week     time.Time
	metrics  map[string]*float64
	outcome  *float64
}

// ComputeImpact joins weekly facts with the external outcome series and
// returns per-entity contemporaneous and lag-1 Pearson correlations plus the
// pooled within-entity-demeaned correlations. Entities with fewer than
// minWeeks outcome-bearing weeks are skipped; zero-variance pairs yield no
// row at all.
func ComputeImpact(weekly []domain.WeeklyFact, outcome []domain.OutcomePoint, minWeeks int) ([]domain.ImpactRow, []domain.PooledImpactRow) {
	if minWeeks <= 0 {
		minWeeks = 8
	}

	master := buildMaster(weekly, outcome)
	if len(master) == 0 {
		return nil, nil
	}

	byEntity := map[string][]masterRow{}
	order := []string{}
	for _, row := range master {
		if _, ok := byEntity[row.entityID]; !ok {
			order = append(order, row.entityID)
		}
		byEntity[row.entityID] = append(byEntity[row.entityID], row)
	}
	sort.Strings(order)

	var perEntity []domain.ImpactRow
	for _, entity := range order {
		rows := byEntity[entity]
		sort.Slice(rows, func(i, j int) bool { return rows[i].week.Before(rows[j].week) })

		withOutcome := 0
		for _, r := range rows {
			if r.outcome != nil {
				withOutcome++
			}
		}
		if withOutcome < minWeeks {
			continue
		}

		for _, metric := range impactMetrics {
			var xs, ys []float64
			for _, r := range rows {
				if v := r.metrics[metric]; v != nil && r.outcome != nil {
					xs = append(xs, *v)
					ys = append(ys, *r.outcome)
				}
			}
			if len(xs) >= minWeeks {
				if r, ok := pearson(ys, xs); ok {
					perEntity = append(perEntity, domain.ImpactRow{
						EntityID: entity,
						Metric:   metric,
						Type:     domain.ImpactContemporaneous,
						Corr:     r,
						Pairs:    len(xs),
					})
				}
			}

			// Lag-1: last week's metric against this week's outcome,
			// paired by row adjacency in the week-sorted table.
			var lx, ly []float64
			for i := 1; i < len(rows); i++ {
				if v := rows[i-1].metrics[metric]; v != nil && rows[i].outcome != nil {
					lx = append(lx, *v)
					ly = append(ly, *rows[i].outcome)
				}
			}
			if len(lx) >= minWeeks {
				if r, ok := pearson(ly, lx); ok {
					perEntity = append(perEntity, domain.ImpactRow{
						EntityID: entity,
						Metric:   metric + "_lag1",
						Type:     domain.ImpactLag1,
						Corr:     r,
						Pairs:    len(lx),
					})
				}
			}
		}
	}

	pooled := pooledImpact(byEntity, order, minWeeks)
	return perEntity, pooled
}

// pooledImpact removes entity-level fixed effects by demeaning outcome and
// metrics within each entity, then correlates the residuals globally.
func pooledImpact(byEntity map[string][]masterRow, order []string, minWeeks int) []domain.PooledImpactRow {
	type residualPair struct {
		metric  float64
		outcome float64
	}
	residuals := map[string][]residualPair{}

	for _, entity := range order {
		var rows []masterRow
		for _, r := range byEntity[entity] {
			if r.outcome != nil {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			continue
		}

		var outcomes []float64
		for _, r := range rows {
			outcomes = append(outcomes, *r.outcome)
		}
		outcomeMean := mean(outcomes)

		for _, metric := range impactMetrics {
			var values []float64
			for _, r := range rows {
				if v := r.metrics[metric]; v != nil {
					values = append(values, *v)
				}
			}
			if len(values) == 0 {
				continue
			}
			metricMean := mean(values)
			for _, r := range rows {
				if v := r.metrics[metric]; v != nil {
					residuals[metric] = append(residuals[metric], residualPair{
						metric:  *v - metricMean,
						outcome: *r.outcome - outcomeMean,
					})
				}
			}
		}
	}

	var pooled []domain.PooledImpactRow
	for _, metric := range impactMetrics {
		pairs := residuals[metric]
		if len(pairs) < minWeeks {
			continue
		}
		var xs, ys []float64
		for _, p := range pairs {
			xs = append(xs, p.metric)
			ys = append(ys, p.outcome)
		}
		if r, ok := pearson(ys, xs); ok {
			pooled = append(pooled, domain.PooledImpactRow{
				Metric: metric,
				Corr:   r,
				Pairs:  len(pairs),
			})
		}
	}
	return pooled
}

func buildMaster(weekly []domain.WeeklyFact, outcome []domain.OutcomePoint) []masterRow {
	index := map[weekKey]int{}
	var master []masterRow

	for _, f := range weekly {
		count := float64(f.ReviewCount)
		avg := f.AvgRating
		p5 := f.FiveStarShare
		row := masterRow{
			entityID: f.EntityID,
			week:     f.Week,
			metrics: map[string]*float64{
				"avg_rating_week":    &avg,
				"reviews_count_week": &count,
				"p5_share_week":      &p5,
				"bayes_rating_week":  f.BayesRating,
			},
		}
		index[weekKey{f.EntityID, f.Week}] = len(master)
		master = append(master, row)
	}

	for _, p := range outcome {
		key := weekKey{p.EntityID, p.Week}
		v := p.Outcome
		if i, ok := index[key]; ok {
			master[i].outcome = &v
			continue
		}
		index[key] = len(master)
		master = append(master, masterRow{
			entityID: p.EntityID,
			week:     p.Week,
			metrics:  map[string]*float64{},
			outcome:  &v,
		})
	}

	return master
}
