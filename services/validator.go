package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"crime-etl/metrics"
	"crime-etl/models"
	"crime-etl/utils"
)

// ErrValidationFailed is matched by every *ValidationError.
var ErrValidationFailed = errors.New("silver validation failed")

// ValidationRules configures the silver quality checks.
type ValidationRules struct {
	RequiredColumns []string
	// MaxNullFraction is the highest tolerated null share per column, in [0,1].
	MaxNullFraction map[string]float64
	MinLatitude     float64
	MaxLatitude     float64
	MinLongitude    float64
	MaxLongitude    float64
	// MaxOutOfBounds is the share of coordinate pairs allowed outside the box.
	MaxOutOfBounds  float64
	AllowedSeverity []string
}

// DefaultValidationRules returns the rules applied before building gold.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		RequiredColumns: []string{
			"crime_id", "date_occurred", "date_reported", "hour",
			"area_code", "area_name",
			"crime_code", "crime_description", "crime_category", "crime_severity",
			"victim_age_group", "victim_sex_desc", "victim_descent_desc",
			"victim_age",
			"latitude", "longitude",
			"is_violent", "has_weapon", "case_closed",
			"year", "month",
		},
		MaxNullFraction: map[string]float64{
			"crime_id":      0.00,
			"date_occurred": 0.01,
			"hour":          0.01,
			"area_code":     0.01,
			"crime_code":    0.01,
		},
		MinLatitude:     33.7,
		MaxLatitude:     34.4,
		MinLongitude:    -118.7,
		MaxLongitude:    -118.1,
		MaxOutOfBounds:  0.05,
		AllowedSeverity: []string{SeveritySerious, SeverityMinor},
	}
}

// nullCheckOrder fixes the order null-threshold errors are reported in.
var nullCheckOrder = []string{"crime_id", "date_occurred", "hour", "area_code", "crime_code"}

// nullTests reports whether a record's value for a tracked column is null.
var nullTests = map[string]func(r *models.SilverRecord) bool{
	"crime_id":      func(r *models.SilverRecord) bool { return !r.CrimeID.Valid },
	"date_occurred": func(r *models.SilverRecord) bool { return !r.DateOccurred.Valid },
	"hour":          func(r *models.SilverRecord) bool { return !r.Hour.Valid },
	"area_code":     func(r *models.SilverRecord) bool { return !r.AreaCode.Valid },
	"crime_code":    func(r *models.SilverRecord) bool { return !r.CrimeCode.Valid },
}

// ValidationResult lists every finding of one validation pass.
type ValidationResult struct {
	Errors         []string
	Warnings       []string
	MissingColumns []string
}

// ValidationError carries every violated rule of a failed validation.
type ValidationError struct {
	Errors         []string
	Warnings       []string
	MissingColumns []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("silver validation failed: %s", strings.Join(e.Errors, "; "))
}

// Is matches ErrValidationFailed, and models.ErrSchemaMismatch when required
// columns were missing.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidationFailed:
		return true
	case models.ErrSchemaMismatch:
		return len(e.MissingColumns) > 0
	}
	return false
}

// SilverValidator checks a silver table before the gold layer is built.
type SilverValidator struct {
	rules  ValidationRules
	logger *utils.Logger
}

// NewSilverValidator creates a validator with the given rules.
func NewSilverValidator(rules ValidationRules, logger *utils.Logger) *SilverValidator {
	return &SilverValidator{rules: rules, logger: logger}
}

// Validate runs every check against table. Warnings are logged and returned.
// If any error is found, the returned error is a *ValidationError.
func (v *SilverValidator) Validate(table *models.SilverTable) (*ValidationResult, error) {
	res := v.check(table)

	for _, w := range res.Warnings {
		v.logger.Warn("[validator] %s", w)
	}
	metrics.ValidationIssues.WithLabelValues("warning").Add(float64(len(res.Warnings)))
	metrics.ValidationIssues.WithLabelValues("error").Add(float64(len(res.Errors)))

	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			v.logger.Error("[validator] %s", e)
		}
		return res, &ValidationError{
			Errors:         res.Errors,
			Warnings:       res.Warnings,
			MissingColumns: res.MissingColumns,
		}
	}

	v.logger.Info("[validator] %s rows passed validation with %d warnings",
		formatCount(len(table.Records)), len(res.Warnings))
	return res, nil
}

func (v *SilverValidator) check(table *models.SilverTable) *ValidationResult {
	res := &ValidationResult{}
	rows := table.Records

	present := make(map[string]models.Column, len(table.Columns))
	for _, c := range table.Columns {
		present[c.Name] = c
	}
	has := func(name string) bool {
		_, ok := present[name]
		return ok
	}

	if len(rows) == 0 {
		res.Errors = append(res.Errors, "dataset is empty")
	}

	for _, name := range v.rules.RequiredColumns {
		if !has(name) {
			res.MissingColumns = append(res.MissingColumns, name)
		}
	}
	if len(res.MissingColumns) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("missing columns: %s", strings.Join(res.MissingColumns, ", ")))
	}

	for _, name := range []string{"date_occurred", "date_reported"} {
		if col, ok := present[name]; ok && !isDateTimeType(col.DatabaseType) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s has type %q, not a date-time type", name, col.DatabaseType))
		}
	}

	if len(rows) > 0 {
		for _, name := range nullCheckOrder {
			limit, tracked := v.rules.MaxNullFraction[name]
			if !tracked || !has(name) {
				continue
			}
			isNull := nullTests[name]
			nulls := 0
			for _, r := range rows {
				if isNull(r) {
					nulls++
				}
			}
			if frac := float64(nulls) / float64(len(rows)); frac > limit {
				res.Errors = append(res.Errors, fmt.Sprintf("%s is %.1f%% null (limit %.1f%%)", name, frac*100, limit*100))
			}
		}
	}

	if has("hour") {
		invalid := 0
		for _, r := range rows {
			if !r.Hour.Valid || r.Hour.Int64 < 0 || r.Hour.Int64 > 23 {
				invalid++
			}
		}
		if invalid > 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("hour outside 0-23: %s rows", formatCount(invalid)))
		}
	}

	if has("latitude") && has("longitude") {
		pairs, outside := 0, 0
		for _, r := range rows {
			if !r.Latitude.Valid || !r.Longitude.Valid {
				continue
			}
			pairs++
			if !v.inBounds(r.Latitude.Float64, r.Longitude.Float64) {
				outside++
			}
		}
		if pairs > 0 && float64(outside)/float64(pairs) > v.rules.MaxOutOfBounds {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s coordinates outside the LA bounding box (>%.0f%%)", formatCount(outside), v.rules.MaxOutOfBounds*100))
		}
	}

	if has("crime_severity") {
		allowed := make(map[string]bool, len(v.rules.AllowedSeverity))
		for _, s := range v.rules.AllowedSeverity {
			allowed[s] = true
		}
		invalid := 0
		for _, r := range rows {
			if r.CrimeSeverity.Valid && !allowed[r.CrimeSeverity.String] {
				invalid++
			}
		}
		if invalid > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("crime_severity outside the expected domain: %s rows", formatCount(invalid)))
		}
	}

	if has("crime_id") {
		seen := make(map[sql.NullString]struct{}, len(rows))
		dup := 0
		for _, r := range rows {
			if _, ok := seen[r.CrimeID]; ok {
				dup++
				continue
			}
			seen[r.CrimeID] = struct{}{}
		}
		if dup > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate crime_id: %s", formatCount(dup)))
		}
	}

	return res
}

func (v *SilverValidator) inBounds(lat, lon float64) bool {
	return lat >= v.rules.MinLatitude && lat <= v.rules.MaxLatitude &&
		lon >= v.rules.MinLongitude && lon <= v.rules.MaxLongitude
}

func isDateTimeType(dbType string) bool {
	t := strings.ToUpper(dbType)
	return strings.Contains(t, "DATE") || strings.Contains(t, "TIME")
}
