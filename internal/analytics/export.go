package analytics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ReviewScanner/internal/domain"
)

// Report bundles everything one analytics pass produces.
type Report struct {
	Weekly     []domain.WeeklyFact
	Distortion []domain.DistortionScore
	PerEntity  []domain.ImpactRow
	Pooled     []domain.PooledImpactRow
	Volatility []domain.VolatilityRow
}

// RunStatus is the machine-readable completion marker written next to the
// exported tables.
type RunStatus struct {
	FinishedAt       string `json:"finished_at"`
	Entities         int    `json:"entities"`
	WeeklyRows       int    `json:"weekly_rows"`
	ScoredEntities   int    `json:"scored_entities"`
	ImpactRows       int    `json:"impact_rows"`
	PooledImpactRows int    `json:"pooled_impact_rows"`
}

// Export writes every report table to dir as a CSV plus run_status.json.
// Each file lands through a temp file and rename.
func Export(dir string, report Report, finishedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	if err := writeCSV(filepath.Join(dir, "master_weekly.csv"), weeklyHeader, weeklyRows(report.Weekly)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "distortion_prob_by_entity.csv"), distortionHeader, distortionRows(report.Distortion)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "impact_per_entity.csv"), impactHeader, impactRows(report.PerEntity)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "impact_pooled.csv"), pooledHeader, pooledRows(report.Pooled)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "volatility_summary.csv"), volatilityHeader, volatilityRows(report.Volatility)); err != nil {
		return err
	}

	entities := map[string]struct{}{}
	for _, f := range report.Weekly {
		entities[f.EntityID] = struct{}{}
	}
	scored := 0
	for _, d := range report.Distortion {
		if d.Probability != nil {
			scored++
		}
	}
	status := RunStatus{
		FinishedAt:       finishedAt.UTC().Format(time.RFC3339),
		Entities:         len(entities),
		WeeklyRows:       len(report.Weekly),
		ScoredEntities:   scored,
		ImpactRows:       len(report.PerEntity),
		PooledImpactRows: len(report.Pooled),
	}
	return writeJSON(filepath.Join(dir, "run_status.json"), status)
}

var (
	weeklyHeader = []string{
		"entity_id", "week_start", "avg_rating_week", "reviews_count_week",
		"rating_variance_week", "p5_share_week", "p1_share_week",
		"cum_reviews", "cum_avg_rating", "bayes_rating_week",
	}
	distortionHeader = []string{
		"entity_id", "observed_weeks", "burstiness", "recent_shift",
		"extremeness", "drift_vs_cumulative", "distortion_prob",
	}
	impactHeader     = []string{"entity_id", "metric", "type", "corr", "pairs"}
	pooledHeader     = []string{"metric", "corr", "pairs"}
	volatilityHeader = []string{
		"entity_id", "weeks", "outcome_var", "rating_var",
		"mean_outcome", "mean_rating",
	}
)

func weeklyRows(facts []domain.WeeklyFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, []string{
			f.EntityID,
			f.Week.Format("2006-01-02"),
			formatFloat(f.AvgRating),
			strconv.Itoa(f.ReviewCount),
			formatFloat(f.RatingVariance),
			formatFloat(f.FiveStarShare),
			formatFloat(f.OneStarShare),
			strconv.Itoa(f.CumulativeReviews),
			formatOptional(f.CumulativeAvgRating),
			formatOptional(f.BayesRating),
		})
	}
	return rows
}

func distortionRows(scores []domain.DistortionScore) [][]string {
	rows := make([][]string, 0, len(scores))
	for _, d := range scores {
		rows = append(rows, []string{
			d.EntityID,
			strconv.Itoa(d.ObservedWeeks),
			formatOptional(d.Burstiness),
			formatOptional(d.RecentShift),
			formatOptional(d.Extremeness),
			formatOptional(d.DriftVsCumulative),
			formatOptional(d.Probability),
		})
	}
	return rows
}

func impactRows(impact []domain.ImpactRow) [][]string {
	rows := make([][]string, 0, len(impact))
	for _, r := range impact {
		rows = append(rows, []string{
			r.EntityID, r.Metric, string(r.Type),
			formatFloat(r.Corr), strconv.Itoa(r.Pairs),
		})
	}
	return rows
}

func pooledRows(pooled []domain.PooledImpactRow) [][]string {
	rows := make([][]string, 0, len(pooled))
	for _, r := range pooled {
		rows = append(rows, []string{r.Metric, formatFloat(r.Corr), strconv.Itoa(r.Pairs)})
	}
	return rows
}

func volatilityRows(vol []domain.VolatilityRow) [][]string {
	rows := make([][]string, 0, len(vol))
	for _, r := range vol {
		rows = append(rows, []string{
			r.EntityID,
			strconv.Itoa(r.Weeks),
			formatOptional(r.OutcomeVar),
			formatOptional(r.RatingVar),
			formatOptional(r.MeanOutcome),
			formatOptional(r.MeanRating),
		})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s header: %w", filepath.Base(path), err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s row: %w", filepath.Base(path), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
