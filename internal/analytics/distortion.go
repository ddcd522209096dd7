package analytics

import (
	"math"
	"sort"

	"ReviewScanner/internal/domain"
)

// minScoredWeeks is the least history an entity needs before its review
// pattern can be scored at all.
const minScoredWeeks = 3

// rawComponents holds the unnormalized heuristics for one entity. A nil
// component means it could not be computed from the available weeks.
type rawComponents struct {
	entityID      string
	burstiness    *float64
	recentShift   *float64
	extremeness   *float64
	drift         *float64
	observedWeeks int
}

// ScoreDistortion estimates a manipulation likelihood per entity from its
// weekly review pattern. Components are min-max normalized across the scored
// batch, so absolute scores depend on which entities are scored together;
// re-running on a different entity set shifts them. That is a property of the
// method, not an error.
func ScoreDistortion(weekly []domain.WeeklyFact, t Tunables) []domain.DistortionScore {
	byEntity := map[string][]domain.WeeklyFact{}
	order := []string{}
	for _, f := range weekly {
		if _, ok := byEntity[f.EntityID]; !ok {
			order = append(order, f.EntityID)
		}
		byEntity[f.EntityID] = append(byEntity[f.EntityID], f)
	}
	sort.Strings(order)

	raws := make([]rawComponents, 0, len(order))
	for _, entity := range order {
		weeks := byEntity[entity]
		sort.Slice(weeks, func(i, j int) bool { return weeks[i].Week.Before(weeks[j].Week) })
		raws = append(raws, componentsFor(entity, weeks, t))
	}

	normBurst := normalizeColumn(raws, func(r rawComponents) *float64 { return r.burstiness })
	normShift := normalizeColumn(raws, func(r rawComponents) *float64 { return r.recentShift })
	normExtreme := normalizeColumn(raws, func(r rawComponents) *float64 { return r.extremeness })
	normDrift := normalizeColumn(raws, func(r rawComponents) *float64 { return r.drift })

	scores := make([]domain.DistortionScore, len(raws))
	for i, raw := range raws {
		score := domain.DistortionScore{
			EntityID:      raw.entityID,
			ObservedWeeks: raw.observedWeeks,
		}
		if raw.observedWeeks >= minScoredWeeks {
			score.Burstiness = normBurst[i]
			score.RecentShift = normShift[i]
			score.Extremeness = normExtreme[i]
			score.DriftVsCumulative = normDrift[i]
			score.Probability = meanOfPresent(
				score.Burstiness, score.RecentShift, score.Extremeness, score.DriftVsCumulative)
		}
		scores[i] = score
	}
	return scores
}

func componentsFor(entity string, weeks []domain.WeeklyFact, t Tunables) rawComponents {
	raw := rawComponents{entityID: entity, observedWeeks: len(weeks)}
	if len(weeks) < minScoredWeeks {
		return raw
	}

	// Burstiness: the peak week against the median active week.
	var positive []float64
	maxCount := 0.0
	for _, w := range weeks {
		c := float64(w.ReviewCount)
		if c > maxCount {
			maxCount = c
		}
		if c > 0 {
			positive = append(positive, c)
		}
	}
	if med, ok := median(positive); ok && med > 0 {
		raw.burstiness = ptr(maxCount / med)
	}

	// Recent shift: the last window against everything before it. With no
	// prior weeks the component is undefined.
	window := t.RecentShiftWindow
	if window <= 0 {
		window = 4
	}
	if len(weeks) > window {
		var recent, prior []float64
		for _, w := range weeks[len(weeks)-window:] {
			recent = append(recent, w.AvgRating)
		}
		for _, w := range weeks[:len(weeks)-window] {
			prior = append(prior, w.AvgRating)
		}
		raw.recentShift = ptr(math.Abs(mean(recent) - mean(prior)))
	}

	// Extremeness: a high five-star share paired with low variance.
	var p5s, vars []float64
	for _, w := range weeks {
		p5s = append(p5s, w.FiveStarShare)
		vars = append(vars, w.RatingVariance)
	}
	raw.extremeness = ptr((mean(p5s) - t.FiveStarBaseline) *
		(t.VarianceCap - math.Min(mean(vars), t.VarianceCap)))

	// Drift: last week's average against the all-time weighted average.
	last := weeks[len(weeks)-1]
	if last.CumulativeAvgRating != nil {
		raw.drift = ptr(math.Abs(last.AvgRating - *last.CumulativeAvgRating))
	}

	return raw
}

// normalizeColumn min-max scales one component across the scored entities.
// Entities below the week threshold stay out of the pool and keep nil;
// within the pool a missing value is imputed with the column median.
func normalizeColumn(raws []rawComponents, pick func(rawComponents) *float64) []*float64 {
	var pool []float64
	for _, r := range raws {
		if r.observedWeeks < minScoredWeeks {
			continue
		}
		if v := pick(r); v != nil {
			pool = append(pool, *v)
		}
	}
	med, hasMedian := median(pool)

	values := make([]float64, 0, len(raws))
	scored := make([]int, 0, len(raws))
	for i, r := range raws {
		if r.observedWeeks < minScoredWeeks {
			continue
		}
		v := pick(r)
		switch {
		case v != nil:
			values = append(values, *v)
		case hasMedian:
			values = append(values, med)
		default:
			continue
		}
		scored = append(scored, i)
	}

	normalized := minMaxNormalize(values)
	out := make([]*float64, len(raws))
	for j, i := range scored {
		out[i] = ptr(normalized[j])
	}
	return out
}

func meanOfPresent(vals ...*float64) *float64 {
	var present []float64
	for _, v := range vals {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return ptr(mean(present))
}
