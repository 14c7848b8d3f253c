package services

import (
	"cmp"
	"database/sql"
	"slices"

	"crime-etl/models"
	"crime-etl/utils"
)

type areaMonthKey struct {
	area  string
	year  int
	month int
}

type crimeYearKey struct {
	description string
	category    string
	year        int
}

type ageMean struct {
	sum   int64
	count int64
}

// Aggregator computes the pre-aggregated gold tables from silver.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// AreaMonth groups records by (area name, year, month). Rows come back
// sorted by that key. total_crimes counts records with a crime id.
func (a *Aggregator) AreaMonth(records []*models.SilverRecord) []models.AreaMonthAgg {
	groups := make(map[areaMonthKey]*models.AreaMonthAgg)

	for _, r := range records {
		k := areaMonthKey{area: r.AreaName, year: r.Year, month: r.Month}
		g, ok := groups[k]
		if !ok {
			g = &models.AreaMonthAgg{AreaName: k.area, Year: k.year, Month: k.month}
			groups[k] = g
		}
		if r.CrimeID.Valid {
			g.TotalCrimes++
		}
		g.ViolentCrimes += boolCount(r.IsViolent)
		g.CrimesWithWeapon += boolCount(r.HasWeapon)
		g.CasesClosed += boolCount(r.CaseClosed)
	}

	rows := make([]models.AreaMonthAgg, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, *g)
	}
	slices.SortFunc(rows, func(x, y models.AreaMonthAgg) int {
		return cmp.Or(
			cmp.Compare(x.AreaName, y.AreaName),
			cmp.Compare(x.Year, y.Year),
			cmp.Compare(x.Month, y.Month),
		)
	})

	a.logger.Info("[aggregator] agg_area_month: %s rows", formatCount(len(rows)))
	return rows
}

// CrimeYear groups records by (crime description, category, year). The
// average victim age skips null ages and is null when a group has none.
func (a *Aggregator) CrimeYear(records []*models.SilverRecord) []models.CrimeYearAgg {
	groups := make(map[crimeYearKey]*models.CrimeYearAgg)
	ages := make(map[crimeYearKey]*ageMean)

	for _, r := range records {
		k := crimeYearKey{description: r.CrimeDescription, category: r.CrimeCategory, year: r.Year}
		g, ok := groups[k]
		if !ok {
			g = &models.CrimeYearAgg{CrimeDescription: k.description, CrimeCategory: k.category, Year: k.year}
			groups[k] = g
			ages[k] = &ageMean{}
		}
		if r.CrimeID.Valid {
			g.TotalCrimes++
		}
		if r.VictimAge.Valid {
			ages[k].sum += r.VictimAge.Int64
			ages[k].count++
		}
	}

	rows := make([]models.CrimeYearAgg, 0, len(groups))
	for k, g := range groups {
		if m := ages[k]; m.count > 0 {
			g.AvgVictimAge = sql.NullFloat64{Float64: float64(m.sum) / float64(m.count), Valid: true}
		}
		rows = append(rows, *g)
	}
	slices.SortFunc(rows, func(x, y models.CrimeYearAgg) int {
		return cmp.Or(
			cmp.Compare(x.CrimeDescription, y.CrimeDescription),
			cmp.Compare(x.CrimeCategory, y.CrimeCategory),
			cmp.Compare(x.Year, y.Year),
		)
	})

	a.logger.Info("[aggregator] agg_crime_year: %s rows", formatCount(len(rows)))
	return rows
}

func boolCount(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
