package services

import (
	"database/sql"
	"strings"
	"time"

	"crime-etl/metrics"
	"crime-etl/models"
	"crime-etl/utils"
)

// DateLayout is the timestamp format of the raw date columns,
// e.g. "03/01/2020 12:00:00 AM". Unpadded month, day and hour also parse.
const DateLayout = "1/2/2006 3:04:05 PM"

// Enricher turns cleaned raw rows into silver records.
type Enricher struct {
	logger *utils.Logger
}

// NewEnricher creates an Enricher with the given logger.
func NewEnricher(logger *utils.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// Enrich derives the silver features for every row. Rows whose occurrence or
// report date cannot be parsed are dropped and counted. Every record gets the
// same collectedAt.
func (e *Enricher) Enrich(rows []*models.RawRecord, collectedAt time.Time) (*models.SilverTable, int) {
	table := &models.SilverTable{
		Columns: models.SilverColumns,
		Records: make([]*models.SilverRecord, 0, len(rows)),
	}

	dropped := 0
	for _, r := range rows {
		rec, ok := enrichRow(r, collectedAt)
		if !ok {
			dropped++
			e.logger.Debug("[enricher] unparseable dates for case %s: occ=%q rptd=%q",
				r.CaseID.String, r.DateOccurred.String, r.DateReported.String)
			continue
		}
		table.Records = append(table.Records, rec)
	}

	if dropped > 0 {
		metrics.RowsRejected.WithLabelValues("date_parse").Add(float64(dropped))
		e.logger.Warn("[enricher] dropped %s rows with unparseable dates", formatCount(dropped))
	}
	e.logger.Info("[enricher] enriched %s rows", formatCount(len(table.Records)))
	return table, dropped
}

func enrichRow(r *models.RawRecord, collectedAt time.Time) (*models.SilverRecord, bool) {
	occurred, ok := parseDate(r.DateOccurred)
	if !ok {
		return nil, false
	}
	reported, ok := parseDate(r.DateReported)
	if !ok {
		return nil, false
	}

	var timeCode int64
	if r.TimeOccurred.Valid {
		timeCode = r.TimeOccurred.Int64
	}
	hour := int(timeCode / 100)

	crimeDesc := r.CrimeDescription.String
	category := CrimeCategory(crimeDesc)
	weapon := WeaponCategory(r.WeaponDescription)

	return &models.SilverRecord{
		CrimeID:      r.CaseID,
		DateReported: sql.NullTime{Time: reported, Valid: true},
		DateOccurred: sql.NullTime{Time: occurred, Valid: true},
		TimeOccurred: timeCode,

		Hour:        sql.NullInt64{Int64: int64(hour), Valid: true},
		DayOfWeek:   mondayFirst(occurred.Weekday()),
		DayName:     occurred.Weekday().String(),
		PeriodOfDay: PeriodOfDay(hour),

		AreaCode:     r.AreaCode,
		AreaName:     r.AreaName.String,
		DistrictCode: r.DistrictCode,

		CrimeSeverity:    Severity(r.CrimePart),
		CrimeCode:        r.CrimeCode,
		CrimeDescription: crimeDesc,
		CrimeCategory:    category,

		VictimAge:         r.VictimAge,
		VictimAgeGroup:    AgeGroup(r.VictimAge),
		VictimSex:         codeOrX(r.VictimSex),
		VictimSexDesc:     SexDescription(r.VictimSex),
		VictimDescent:     codeOrX(r.VictimDescent),
		VictimDescentDesc: DescentDescription(r.VictimDescent),

		PremiseCode:        r.PremiseCode,
		PremiseDescription: r.PremiseDescription.String,
		PremiseCategory:    PremiseCategory(r.PremiseDescription.String),

		WeaponCode:        r.WeaponCode,
		WeaponDescription: r.WeaponDescription,
		WeaponCategory:    weapon,

		IsViolent: category == CategoryViolent,
		HasWeapon: weapon != WeaponNone,

		StatusCode:        r.StatusCode.String,
		StatusDescription: r.StatusDescription,
		CaseClosed:        ClosedStatusCodes[r.StatusCode.String],

		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Location:  strings.TrimSpace(r.Location.String),

		Year:    occurred.Year(),
		Month:   int(occurred.Month()),
		Quarter: quarterOf(occurred.Month()),

		CollectedAt: collectedAt,
	}, true
}

func parseDate(s sql.NullString) (time.Time, bool) {
	if !s.Valid {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s.String))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// mondayFirst converts a weekday to 0 = Monday … 6 = Sunday.
func mondayFirst(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
