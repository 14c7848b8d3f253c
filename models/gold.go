package models

import (
	"database/sql"
	"time"
)

// DateKey identifies a calendar date independent of time of day and zone.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DateKeyOf returns the calendar date of t in its own location.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// Time returns the key as midnight UTC.
func (k DateKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

type DateDim struct {
	SKDate     int64
	FullDate   time.Time
	Year       int
	Quarter    int
	Month      int
	MonthName  string
	WeekOfYear int
	DayOfMonth int
	DayOfWeek  int // Monday = 0
	DayName    string
	IsWeekend  bool
}

type TimeDim struct {
	Hour        int
	SKTime      int64
	PeriodOfDay string
	IsRushHour  bool
}

type AreaDim struct {
	AreaCode sql.NullInt64
	AreaName string
	SKArea   int64
	Region   string
}

type CrimeTypeDim struct {
	CrimeCode        sql.NullInt64
	CrimeDescription string
	CrimeCategory    string
	CrimeSeverity    sql.NullString
	SKCrimeType      int64
	IsViolent        bool
	SeverityLevel    sql.NullInt64
}

// VictimKey is the composite natural key of the victim dimension.
type VictimKey struct {
	AgeGroup string
	Sex      string
	Descent  string
}

type VictimDim struct {
	VictimKey
	SKVictim int64
}

// FactCrime is one row of gold.fato_crimes. Dimension keys are null when the
// silver record had no matching dimension row.
type FactCrime struct {
	SKCrime     int64
	NKCrimeID   sql.NullString
	SKDate      sql.NullInt64
	SKTime      sql.NullInt64
	SKArea      sql.NullInt64
	SKCrimeType sql.NullInt64
	SKVictim    sql.NullInt64
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	IsViolent   bool
	HasWeapon   bool
	CaseClosed  bool
}

type AreaMonthAgg struct {
	AreaName         string
	Year             int
	Month            int
	TotalCrimes      int64
	ViolentCrimes    int64
	CrimesWithWeapon int64
	CasesClosed      int64
}

type CrimeYearAgg struct {
	CrimeDescription string
	CrimeCategory    string
	Year             int
	TotalCrimes      int64
	AvgVictimAge     sql.NullFloat64
}

// Dimensions groups the five dimension tables of one run.
type Dimensions struct {
	Dates      []DateDim
	Times      []TimeDim
	Areas      []AreaDim
	CrimeTypes []CrimeTypeDim
	Victims    []VictimDim
}

// GoldLayer is the complete star schema produced from one silver table.
type GoldLayer struct {
	Dimensions
	Facts     []FactCrime
	AreaMonth []AreaMonthAgg
	CrimeYear []CrimeYearAgg
}
