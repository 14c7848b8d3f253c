package models

import (
	"database/sql"
	"time"
)

// RawRecord holds one unprocessed row of the raw crime dataset. Empty CSV
// fields and unparseable numbers are carried as invalid (null) values.
type RawRecord struct {
	CaseID             sql.NullString // DR_NO
	DateReported       sql.NullString // Date Rptd
	DateOccurred       sql.NullString // DATE OCC
	TimeOccurred       sql.NullInt64  // TIME OCC, hhmm
	AreaCode           sql.NullInt64
	AreaName           sql.NullString
	DistrictCode       sql.NullInt64
	CrimePart          sql.NullInt64 // Part 1-2
	CrimeCode          sql.NullInt64
	CrimeDescription   sql.NullString
	VictimAge          sql.NullInt64
	VictimSex          sql.NullString
	VictimDescent      sql.NullString
	PremiseCode        sql.NullInt64
	PremiseDescription sql.NullString
	WeaponCode         sql.NullInt64
	WeaponDescription  sql.NullString
	StatusCode         sql.NullString
	StatusDescription  sql.NullString
	Latitude           sql.NullFloat64
	Longitude          sql.NullFloat64
	Location           sql.NullString
}

// SilverRecord is the cleaned, enriched row stored in silver.crimes.
// Nullable types are kept on the columns the validator tracks, since a
// silver table read back from the store may contain nulls there.
type SilverRecord struct {
	CrimeID      sql.NullString `db:"crime_id"`
	DateReported sql.NullTime   `db:"date_reported"`
	DateOccurred sql.NullTime   `db:"date_occurred"`
	TimeOccurred int64          `db:"time_occurred"`

	Hour        sql.NullInt64 `db:"hour"`
	DayOfWeek   int           `db:"day_of_week"`
	DayName     string        `db:"day_name"`
	PeriodOfDay string        `db:"period_of_day"`

	AreaCode     sql.NullInt64 `db:"area_code"`
	AreaName     string        `db:"area_name"`
	DistrictCode sql.NullInt64 `db:"district_code"`

	CrimeSeverity    sql.NullString `db:"crime_severity"`
	CrimeCode        sql.NullInt64  `db:"crime_code"`
	CrimeDescription string         `db:"crime_description"`
	CrimeCategory    string         `db:"crime_category"`

	VictimAge         sql.NullInt64 `db:"victim_age"`
	VictimAgeGroup    string        `db:"victim_age_group"`
	VictimSex         string        `db:"victim_sex"`
	VictimSexDesc     string        `db:"victim_sex_desc"`
	VictimDescent     string        `db:"victim_descent"`
	VictimDescentDesc string        `db:"victim_descent_desc"`

	PremiseCode        sql.NullInt64 `db:"premise_code"`
	PremiseDescription string        `db:"premise_description"`
	PremiseCategory    string        `db:"premise_category"`

	WeaponCode        sql.NullInt64  `db:"weapon_code"`
	WeaponDescription sql.NullString `db:"weapon_description"`
	WeaponCategory    string         `db:"weapon_category"`

	IsViolent bool `db:"is_violent"`
	HasWeapon bool `db:"has_weapon"`

	StatusCode        string         `db:"status_code"`
	StatusDescription sql.NullString `db:"status_description"`
	CaseClosed        bool           `db:"case_closed"`

	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	Location  string          `db:"location"`

	Year    int `db:"year"`
	Month   int `db:"month"`
	Quarter int `db:"quarter"`

	CollectedAt time.Time `db:"collected_at"`
}

// Column describes one column of a table as seen by the producer: the
// enricher for in-memory data, or the driver when read back from a store.
type Column struct {
	Name         string
	DatabaseType string
}

// SilverTable is a silver dataset together with the column set it carries.
type SilverTable struct {
	Columns []Column
	Records []*SilverRecord
}

// SilverColumns is the silver.crimes column layout, in insert order.
var SilverColumns = []Column{
	{"crime_id", "TEXT"},
	{"date_reported", "TIMESTAMP"},
	{"date_occurred", "TIMESTAMP"},
	{"time_occurred", "INTEGER"},
	{"hour", "INTEGER"},
	{"day_of_week", "INTEGER"},
	{"day_name", "TEXT"},
	{"period_of_day", "TEXT"},
	{"area_code", "INTEGER"},
	{"area_name", "TEXT"},
	{"district_code", "INTEGER"},
	{"crime_severity", "TEXT"},
	{"crime_code", "INTEGER"},
	{"crime_description", "TEXT"},
	{"crime_category", "TEXT"},
	{"victim_age", "INTEGER"},
	{"victim_age_group", "TEXT"},
	{"victim_sex", "TEXT"},
	{"victim_sex_desc", "TEXT"},
	{"victim_descent", "TEXT"},
	{"victim_descent_desc", "TEXT"},
	{"premise_code", "INTEGER"},
	{"premise_description", "TEXT"},
	{"premise_category", "TEXT"},
	{"weapon_code", "INTEGER"},
	{"weapon_description", "TEXT"},
	{"weapon_category", "TEXT"},
	{"is_violent", "BOOLEAN"},
	{"has_weapon", "BOOLEAN"},
	{"status_code", "TEXT"},
	{"status_description", "TEXT"},
	{"case_closed", "BOOLEAN"},
	{"latitude", "DOUBLE PRECISION"},
	{"longitude", "DOUBLE PRECISION"},
	{"location", "TEXT"},
	{"year", "INTEGER"},
	{"month", "INTEGER"},
	{"quarter", "INTEGER"},
	{"collected_at", "TIMESTAMP"},
}

// Values returns the record's fields in SilverColumns order.
func (r *SilverRecord) Values() []any {
	return []any{
		r.CrimeID,
		r.DateReported,
		r.DateOccurred,
		r.TimeOccurred,
		r.Hour,
		r.DayOfWeek,
		r.DayName,
		r.PeriodOfDay,
		r.AreaCode,
		r.AreaName,
		r.DistrictCode,
		r.CrimeSeverity,
		r.CrimeCode,
		r.CrimeDescription,
		r.CrimeCategory,
		r.VictimAge,
		r.VictimAgeGroup,
		r.VictimSex,
		r.VictimSexDesc,
		r.VictimDescent,
		r.VictimDescentDesc,
		r.PremiseCode,
		r.PremiseDescription,
		r.PremiseCategory,
		r.WeaponCode,
		r.WeaponDescription,
		r.WeaponCategory,
		r.IsViolent,
		r.HasWeapon,
		r.StatusCode,
		r.StatusDescription,
		r.CaseClosed,
		r.Latitude,
		r.Longitude,
		r.Location,
		r.Year,
		r.Month,
		r.Quarter,
		r.CollectedAt,
	}
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
