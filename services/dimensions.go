package services

import (
	"database/sql"
	"strings"
	"time"

	"crime-etl/models"
	"crime-etl/utils"
)

// Area names per region, upper case.
var (
	NorthAreas   = []string{"DEVONSHIRE", "FOOTHILL", "MISSION", "NORTH HOLLYWOOD", "VAN NUYS", "WEST VALLEY"}
	SouthAreas   = []string{"77TH STREET", "HARBOR", "SOUTHEAST", "SOUTHWEST"}
	CentralAreas = []string{"CENTRAL", "HOLLENBECK", "RAMPART"}
	WestAreas    = []string{"HOLLYWOOD", "OLYMPIC", "PACIFIC", "WEST LA", "WILSHIRE"}
)

// RushHours are the hours flagged is_rush_hour in the time dimension.
var RushHours = map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}

var severityLevels = map[string]int64{SeveritySerious: 3, SeverityMinor: 1}

// keyRegistry hands out surrogate keys from 1 in first-seen order.
type keyRegistry[K comparable] struct {
	keys  map[K]int64
	order []K
}

func newKeyRegistry[K comparable]() *keyRegistry[K] {
	return &keyRegistry[K]{keys: make(map[K]int64)}
}

// add registers k if unseen and reports its key and whether it was new.
func (r *keyRegistry[K]) add(k K) (int64, bool) {
	if sk, ok := r.keys[k]; ok {
		return sk, false
	}
	sk := int64(len(r.order) + 1)
	r.keys[k] = sk
	r.order = append(r.order, k)
	return sk, true
}

type areaKey struct {
	code sql.NullInt64
	name string
}

type crimeTypeKey struct {
	code        sql.NullInt64
	description string
	category    string
	severity    sql.NullString
}

// KeyMaps resolve silver attributes to dimension surrogate keys.
type KeyMaps struct {
	Date      map[models.DateKey]int64
	Time      map[int64]int64
	Area      map[int64]int64 // by area code
	CrimeType map[int64]int64 // by crime code
	Victim    map[models.VictimKey]int64
}

// DimensionBuilder derives the gold dimensions from a silver table.
type DimensionBuilder struct {
	logger *utils.Logger
}

// NewDimensionBuilder creates a DimensionBuilder with the given logger.
func NewDimensionBuilder(logger *utils.Logger) *DimensionBuilder {
	return &DimensionBuilder{logger: logger}
}

// Build returns the five dimension tables and the lookup maps for the fact
// table. Keys are assigned in one forward pass over records, so they are
// deterministic for a fixed input order.
func (b *DimensionBuilder) Build(records []*models.SilverRecord) (models.Dimensions, KeyMaps) {
	dates := newKeyRegistry[models.DateKey]()
	areas := newKeyRegistry[areaKey]()
	crimeTypes := newKeyRegistry[crimeTypeKey]()
	victims := newKeyRegistry[models.VictimKey]()

	var dims models.Dimensions
	maps := KeyMaps{
		Date:      make(map[models.DateKey]int64),
		Time:      make(map[int64]int64, 24),
		Area:      make(map[int64]int64),
		CrimeType: make(map[int64]int64),
		Victim:    make(map[models.VictimKey]int64),
	}

	for _, r := range records {
		if r.DateOccurred.Valid {
			dk := models.DateKeyOf(r.DateOccurred.Time)
			if sk, ok := dates.add(dk); ok {
				dims.Dates = append(dims.Dates, newDateDim(sk, dk))
				maps.Date[dk] = sk
			}
		}

		ak := areaKey{code: r.AreaCode, name: r.AreaName}
		if sk, ok := areas.add(ak); ok {
			dims.Areas = append(dims.Areas, models.AreaDim{
				AreaCode: r.AreaCode,
				AreaName: r.AreaName,
				SKArea:   sk,
				Region:   Region(r.AreaName),
			})
			// a code seen under several names resolves to its last row
			if r.AreaCode.Valid {
				maps.Area[r.AreaCode.Int64] = sk
			}
		}

		ck := crimeTypeKey{
			code:        r.CrimeCode,
			description: r.CrimeDescription,
			category:    r.CrimeCategory,
			severity:    r.CrimeSeverity,
		}
		if sk, ok := crimeTypes.add(ck); ok {
			dims.CrimeTypes = append(dims.CrimeTypes, models.CrimeTypeDim{
				CrimeCode:        r.CrimeCode,
				CrimeDescription: r.CrimeDescription,
				CrimeCategory:    r.CrimeCategory,
				CrimeSeverity:    r.CrimeSeverity,
				SKCrimeType:      sk,
				IsViolent:        r.CrimeCategory == CategoryViolent,
				SeverityLevel:    severityLevel(r.CrimeSeverity),
			})
			if r.CrimeCode.Valid {
				maps.CrimeType[r.CrimeCode.Int64] = sk
			}
		}

		vk := models.VictimKey{AgeGroup: r.VictimAgeGroup, Sex: r.VictimSexDesc, Descent: r.VictimDescentDesc}
		if sk, ok := victims.add(vk); ok {
			dims.Victims = append(dims.Victims, models.VictimDim{VictimKey: vk, SKVictim: sk})
			maps.Victim[vk] = sk
		}
	}

	dims.Times = TimeDimension()
	for _, td := range dims.Times {
		maps.Time[int64(td.Hour)] = td.SKTime
	}

	b.logger.Info("[dimensions] dates=%s areas=%s crime_types=%s victims=%s times=%d",
		formatCount(len(dims.Dates)), formatCount(len(dims.Areas)),
		formatCount(len(dims.CrimeTypes)), formatCount(len(dims.Victims)), len(dims.Times))
	return dims, maps
}

func newDateDim(sk int64, dk models.DateKey) models.DateDim {
	t := dk.Time()
	_, week := t.ISOWeek()
	dow := mondayFirst(t.Weekday())
	return models.DateDim{
		SKDate:     sk,
		FullDate:   t,
		Year:       dk.Year,
		Quarter:    quarterOf(dk.Month),
		Month:      int(dk.Month),
		MonthName:  dk.Month.String(),
		WeekOfYear: week,
		DayOfMonth: dk.Day,
		DayOfWeek:  dow,
		DayName:    t.Weekday().String(),
		IsWeekend:  t.Weekday() == time.Saturday || t.Weekday() == time.Sunday,
	}
}

// TimeDimension returns the 24 hour rows, keyed hour+1.
func TimeDimension() []models.TimeDim {
	rows := make([]models.TimeDim, 24)
	for h := range rows {
		rows[h] = models.TimeDim{
			Hour:        h,
			SKTime:      int64(h + 1),
			PeriodOfDay: dayPart(h),
			IsRushHour:  RushHours[h],
		}
	}
	return rows
}

// dayPart is the coarser period used by the time dimension.
func dayPart(hour int) string {
	switch {
	case hour < 6:
		return "Madrugada"
	case hour < 12:
		return "Manhã"
	case hour < 18:
		return "Tarde"
	default:
		return "Noite"
	}
}

// Region maps an area name to its city region, ignoring case.
func Region(areaName string) string {
	name := strings.ToUpper(strings.TrimSpace(areaName))
	switch {
	case containsString(NorthAreas, name):
		return "North"
	case containsString(SouthAreas, name):
		return "South"
	case containsString(CentralAreas, name):
		return "Central"
	case containsString(WestAreas, name):
		return "West"
	default:
		return "Other"
	}
}

func severityLevel(s sql.NullString) sql.NullInt64 {
	if !s.Valid {
		return sql.NullInt64{}
	}
	if lvl, ok := severityLevels[s.String]; ok {
		return sql.NullInt64{Int64: lvl, Valid: true}
	}
	return sql.NullInt64{}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
