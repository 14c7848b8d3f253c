package services

import (
	"database/sql"

	"crime-etl/metrics"
	"crime-etl/models"
	"crime-etl/utils"
)

// MaxVictimAge is the upper bound of a plausible victim age.
const MaxVictimAge = 120

// cleanStep is one row filter. keep reports whether a row survives.
type cleanStep struct {
	name string
	keep func(r *models.RawRecord) bool
}

// Cleaner removes raw rows that cannot be trusted. It never repairs a row.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean applies the cleaning filters in order and returns the surviving rows
// in input order, together with the per-filter counts.
func (c *Cleaner) Clean(raw []*models.RawRecord) ([]*models.RawRecord, models.CleanReport) {
	report := models.CleanReport{Input: len(raw)}
	c.logger.Info("[cleaner] input rows: %s", formatCount(len(raw)))

	rows := c.dedupe(raw)
	report.Steps = append(report.Steps, c.record("dedupe", len(raw), len(rows)))

	for _, step := range cleanSteps() {
		before := len(rows)
		rows = filterRows(rows, step.keep)
		report.Steps = append(report.Steps, c.record(step.name, before, len(rows)))
	}

	report.Output = len(rows)
	c.logger.Info("[cleaner] kept %s of %s rows (%.2f%%)",
		formatCount(report.Output), formatCount(report.Input), percentOf(report.Output, report.Input))
	return rows, report
}

// dedupe keeps the first row for each case id. Rows without a case id are
// treated as sharing one id, so only the first of them survives here.
func (c *Cleaner) dedupe(raw []*models.RawRecord) []*models.RawRecord {
	seen := make(map[sql.NullString]struct{}, len(raw))
	result := make([]*models.RawRecord, 0, len(raw))

	for _, r := range raw {
		if _, dup := seen[r.CaseID]; dup {
			c.logger.Debug("[cleaner] duplicate case id skipped: %s", r.CaseID.String)
			continue
		}
		seen[r.CaseID] = struct{}{}
		result = append(result, r)
	}
	return result
}

func (c *Cleaner) record(name string, before, after int) models.StepCount {
	dropped := before - after
	metrics.RowsRejected.WithLabelValues(name).Add(float64(dropped))
	c.logger.Info("[cleaner] after %s: %s (dropped %s)", name, formatCount(after), formatCount(dropped))
	return models.StepCount{Name: name, Remaining: after, Dropped: dropped}
}

func cleanSteps() []cleanStep {
	return []cleanStep{
		{"missing_keys", hasKeyFields},
		{"zero_coordinates", hasNonZeroCoordinates},
		{"victim_age_range", hasPlausibleAge},
		{"missing_descriptions", hasDescriptions},
		{"unidentified_victim", hasIdentifiedVictim},
		{"missing_location", hasLocation},
	}
}

func filterRows(rows []*models.RawRecord, keep func(*models.RawRecord) bool) []*models.RawRecord {
	result := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			result = append(result, r)
		}
	}
	return result
}

func hasKeyFields(r *models.RawRecord) bool {
	return r.CaseID.Valid && r.DateOccurred.Valid && r.CrimeCode.Valid
}

// hasNonZeroCoordinates rejects rows where either coordinate is exactly 0.
// Missing coordinates pass.
func hasNonZeroCoordinates(r *models.RawRecord) bool {
	if r.Latitude.Valid && r.Latitude.Float64 == 0 {
		return false
	}
	if r.Longitude.Valid && r.Longitude.Float64 == 0 {
		return false
	}
	return true
}

func hasPlausibleAge(r *models.RawRecord) bool {
	return r.VictimAge.Valid && r.VictimAge.Int64 >= 0 && r.VictimAge.Int64 <= MaxVictimAge
}

func hasDescriptions(r *models.RawRecord) bool {
	return r.CrimeDescription.Valid && r.AreaName.Valid && r.StatusCode.Valid
}

// hasIdentifiedVictim keeps rows with a known age or a binary sex code.
func hasIdentifiedVictim(r *models.RawRecord) bool {
	if r.VictimAge.Valid && r.VictimAge.Int64 > 0 {
		return true
	}
	return r.VictimSex.Valid && (r.VictimSex.String == "M" || r.VictimSex.String == "F")
}

func hasLocation(r *models.RawRecord) bool {
	return r.Location.Valid && r.PremiseDescription.Valid
}

func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
