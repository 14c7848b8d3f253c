package storage

import (
	"strings"

	"crime-etl/models"
)

// Target table names.
const (
	SilverCrimes = "silver.crimes"

	GoldDimDate      = "gold.dim_date"
	GoldDimTime      = "gold.dim_time"
	GoldDimArea      = "gold.dim_area"
	GoldDimCrimeType = "gold.dim_crime_type"
	GoldDimVictim    = "gold.dim_victim"
	GoldFactCrimes   = "gold.fato_crimes"
	GoldAggAreaMonth = "gold.agg_area_month"
	GoldAggCrimeYear = "gold.agg_crime_year"

	GoldRuns = "gold.etl_runs"
)

// GoldTableNames lists the star schema tables in load order.
var GoldTableNames = []string{
	GoldDimDate, GoldDimTime, GoldDimArea, GoldDimCrimeType, GoldDimVictim,
	GoldFactCrimes, GoldAggAreaMonth, GoldAggCrimeYear,
}

// Table is a fully materialised table ready to be created and loaded.
type Table struct {
	Name    string
	Columns []models.Column
	Rows    [][]any
}

// BaseName returns the table name without its schema.
func (t *Table) BaseName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// SilverTable wraps silver records for loading into silver.crimes.
func SilverTable(t *models.SilverTable) *Table {
	rows := make([][]any, len(t.Records))
	for i, r := range t.Records {
		rows[i] = r.Values()
	}
	return &Table{Name: SilverCrimes, Columns: models.SilverColumns, Rows: rows}
}

// GoldTables lays out the gold layer as the eight tables of GoldTableNames.
func GoldTables(g *models.GoldLayer) []*Table {
	return []*Table{
		dimDateTable(g.Dates),
		dimTimeTable(g.Times),
		dimAreaTable(g.Areas),
		dimCrimeTypeTable(g.CrimeTypes),
		dimVictimTable(g.Victims),
		factTable(g.Facts),
		areaMonthTable(g.AreaMonth),
		crimeYearTable(g.CrimeYear),
	}
}

func dimDateTable(rows []models.DateDim) *Table {
	t := &Table{Name: GoldDimDate, Columns: []models.Column{
		{Name: "sk_date", DatabaseType: "BIGINT"},
		{Name: "full_date", DatabaseType: "DATE"},
		{Name: "year", DatabaseType: "INTEGER"},
		{Name: "quarter", DatabaseType: "INTEGER"},
		{Name: "month", DatabaseType: "INTEGER"},
		{Name: "month_name", DatabaseType: "TEXT"},
		{Name: "week_of_year", DatabaseType: "INTEGER"},
		{Name: "day_of_month", DatabaseType: "INTEGER"},
		{Name: "day_of_week", DatabaseType: "INTEGER"},
		{Name: "day_name", DatabaseType: "TEXT"},
		{Name: "is_weekend", DatabaseType: "BOOLEAN"},
	}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{
			d.SKDate, d.FullDate, d.Year, d.Quarter, d.Month, d.MonthName,
			d.WeekOfYear, d.DayOfMonth, d.DayOfWeek, d.DayName, d.IsWeekend,
		})
	}
	return t
}

func dimTimeTable(rows []models.TimeDim) *Table {
	t := &Table{Name: GoldDimTime, Columns: []models.Column{
		{Name: "hour", DatabaseType: "INTEGER"},
		{Name: "sk_time", DatabaseType: "BIGINT"},
		{Name: "period_of_day", DatabaseType: "TEXT"},
		{Name: "is_rush_hour", DatabaseType: "BOOLEAN"},
	}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{d.Hour, d.SKTime, d.PeriodOfDay, d.IsRushHour})
	}
	return t
}

func dimAreaTable(rows []models.AreaDim) *Table {
	t := &Table{Name: GoldDimArea, Columns: []models.Column{
		{Name: "area_code", DatabaseType: "INTEGER"},
		{Name: "area_name", DatabaseType: "TEXT"},
		{Name: "sk_area", DatabaseType: "BIGINT"},
		{Name: "region", DatabaseType: "TEXT"},
	}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{d.AreaCode, d.AreaName, d.SKArea, d.Region})
	}
	return t
}

func dimCrimeTypeTable(rows []models.CrimeTypeDim) *Table {
	t := &Table{Name: GoldDimCrimeType, Columns: []models.Column{
		{Name: "crime_code", DatabaseType: "INTEGER"},
		{Name: "crime_description", DatabaseType: "TEXT"},
		{Name: "crime_category", DatabaseType: "TEXT"},
		{Name: "crime_severity", DatabaseType: "TEXT"},
		{Name: "sk_crime_type", DatabaseType: "BIGINT"},
		{Name: "is_violent", DatabaseType: "BOOLEAN"},
		{Name: "severity_level", DatabaseType: "INTEGER"},
	}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{
			d.CrimeCode, d.CrimeDescription, d.CrimeCategory, d.CrimeSeverity,
			d.SKCrimeType, d.IsViolent, d.SeverityLevel,
		})
	}
	return t
}

func dimVictimTable(rows []models.VictimDim) *Table {
	t := &Table{Name: GoldDimVictim, Columns: []models.Column{
		{Name: "age_group", DatabaseType: "TEXT"},
		{Name: "sex", DatabaseType: "TEXT"},
		{Name: "descent", DatabaseType: "TEXT"},
		{Name: "sk_victim", DatabaseType: "BIGINT"},
	}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{d.AgeGroup, d.Sex, d.Descent, d.SKVictim})
	}
	return t
}

func factTable(rows []models.FactCrime) *Table {
	t := &Table{Name: GoldFactCrimes, Columns: []models.Column{
		{Name: "sk_crime", DatabaseType: "BIGINT"},
		{Name: "nk_crime_id", DatabaseType: "TEXT"},
		{Name: "sk_date", DatabaseType: "BIGINT"},
		{Name: "sk_time", DatabaseType: "BIGINT"},
		{Name: "sk_area", DatabaseType: "BIGINT"},
		{Name: "sk_crime_type", DatabaseType: "BIGINT"},
		{Name: "sk_victim", DatabaseType: "BIGINT"},
		{Name: "latitude", DatabaseType: "DOUBLE PRECISION"},
		{Name: "longitude", DatabaseType: "DOUBLE PRECISION"},
		{Name: "is_violent", DatabaseType: "BOOLEAN"},
		{Name: "has_weapon", DatabaseType: "BOOLEAN"},
		{Name: "case_closed", DatabaseType: "BOOLEAN"},
	}}
	t.Rows = make([][]any, 0, len(rows))
	for _, f := range rows {
		t.Rows = append(t.Rows, []any{
			f.SKCrime, f.NKCrimeID, f.SKDate, f.SKTime, f.SKArea, f.SKCrimeType, f.SKVictim,
			f.Latitude, f.Longitude, f.IsViolent, f.HasWeapon, f.CaseClosed,
		})
	}
	return t
}

func areaMonthTable(rows []models.AreaMonthAgg) *Table {
	t := &Table{Name: GoldAggAreaMonth, Columns: []models.Column{
		{Name: "area_name", DatabaseType: "TEXT"},
		{Name: "year", DatabaseType: "INTEGER"},
		{Name: "month", DatabaseType: "INTEGER"},
		{Name: "total_crimes", DatabaseType: "BIGINT"},
		{Name: "violent_crimes", DatabaseType: "BIGINT"},
		{Name: "crimes_with_weapon", DatabaseType: "BIGINT"},
		{Name: "cases_closed", DatabaseType: "BIGINT"},
	}}
	for _, a := range rows {
		t.Rows = append(t.Rows, []any{
			a.AreaName, a.Year, a.Month, a.TotalCrimes, a.ViolentCrimes, a.CrimesWithWeapon, a.CasesClosed,
		})
	}
	return t
}

func crimeYearTable(rows []models.CrimeYearAgg) *Table {
	t := &Table{Name: GoldAggCrimeYear, Columns: []models.Column{
		{Name: "crime_description", DatabaseType: "TEXT"},
		{Name: "crime_category", DatabaseType: "TEXT"},
		{Name: "year", DatabaseType: "INTEGER"},
		{Name: "total_crimes", DatabaseType: "BIGINT"},
		{Name: "avg_victim_age", DatabaseType: "DOUBLE PRECISION"},
	}}
	for _, a := range rows {
		t.Rows = append(t.Rows, []any{a.CrimeDescription, a.CrimeCategory, a.Year, a.TotalCrimes, a.AvgVictimAge})
	}
	return t
}
