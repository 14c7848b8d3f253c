package services

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"crime-etl/models"
)

var testCollectedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestEnrichDerivesFeatures(t *testing.T) {
	e := NewEnricher(newTestLogger())

	r := validRaw("200100001")
	r.DateOccurred = nullStr("01/02/2020 11:30:00 PM")
	r.TimeOccurred = nullInt(2330)
	r.CrimeDescription = nullStr("BATTERY - SIMPLE ASSAULT")
	r.Location = nullStr("  1100 W  39TH  PL   ")

	table, dropped := e.Enrich([]*models.RawRecord{r}, testCollectedAt)
	if dropped != 0 || len(table.Records) != 1 {
		t.Fatalf("expected 1 record and no drops, got %d / %d", len(table.Records), dropped)
	}
	got := table.Records[0]

	if !got.Hour.Valid || got.Hour.Int64 != 23 {
		t.Errorf("Hour = %v; want 23", got.Hour)
	}
	if got.PeriodOfDay != "Night" {
		t.Errorf("PeriodOfDay = %q; want Night", got.PeriodOfDay)
	}
	if got.CrimeCategory != CategoryViolent || !got.IsViolent {
		t.Errorf("category = %q, violent = %v", got.CrimeCategory, got.IsViolent)
	}
	// 2020-01-02 was a Thursday
	if got.DayOfWeek != 3 || got.DayName != "Thursday" {
		t.Errorf("day = %d %q; want 3 Thursday", got.DayOfWeek, got.DayName)
	}
	if got.Year != 2020 || got.Month != 1 || got.Quarter != 1 {
		t.Errorf("year/month/quarter = %d/%d/%d", got.Year, got.Month, got.Quarter)
	}
	if got.CrimeSeverity.String != SeveritySerious {
		t.Errorf("CrimeSeverity = %v", got.CrimeSeverity)
	}
	if got.WeaponCategory != WeaponPhysicalForce || !got.HasWeapon {
		t.Errorf("weapon = %q, has = %v", got.WeaponCategory, got.HasWeapon)
	}
	if got.Location != "1100 W  39TH  PL" {
		t.Errorf("Location = %q", got.Location)
	}
	if got.VictimSexDesc != "Female" || got.VictimDescentDesc != "Black" {
		t.Errorf("victim = %q %q", got.VictimSexDesc, got.VictimDescentDesc)
	}
	if got.CaseClosed {
		t.Errorf("status AO should not be closed")
	}
	if !got.CollectedAt.Equal(testCollectedAt) {
		t.Errorf("CollectedAt = %v", got.CollectedAt)
	}
	want := time.Date(2020, 1, 2, 23, 30, 0, 0, time.UTC)
	if !got.DateOccurred.Time.Equal(want) {
		t.Errorf("DateOccurred = %v; want %v", got.DateOccurred.Time, want)
	}
}

func TestEnrichDropsUnparseableDates(t *testing.T) {
	e := NewEnricher(newTestLogger())

	badOcc := validRaw("1")
	badOcc.DateOccurred = nullStr("2020-01-02")
	badRptd := validRaw("2")
	badRptd.DateReported = nullStr("not a date")
	unpadded := validRaw("3")
	unpadded.DateOccurred = nullStr("3/7/2021 9:05:00 AM")

	table, dropped := e.Enrich([]*models.RawRecord{badOcc, badRptd, unpadded, validRaw("4")}, testCollectedAt)
	if dropped != 2 {
		t.Errorf("dropped = %d; want 2", dropped)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(table.Records))
	}
	if got := table.Records[0].DateOccurred.Time; got.Month() != time.March || got.Day() != 7 || got.Hour() != 9 {
		t.Errorf("unpadded date parsed as %v", got)
	}
}

func TestEnrichCodesAndFallbacks(t *testing.T) {
	e := NewEnricher(newTestLogger())

	r := validRaw("1")
	r.TimeOccurred = sql.NullInt64{}
	r.VictimSex = sql.NullString{}
	r.VictimDescent = nullStr("Q")
	r.WeaponDescription = sql.NullString{}
	r.StatusCode = nullStr("JA")
	r.CrimePart = sql.NullInt64{}
	r.VictimAge = nullInt(17)

	table, _ := e.Enrich([]*models.RawRecord{r}, testCollectedAt)
	got := table.Records[0]

	if got.Hour.Int64 != 0 || got.TimeOccurred != 0 {
		t.Errorf("missing time code should give hour 0, got %v", got.Hour)
	}
	if got.VictimSex != "X" || got.VictimSexDesc != Unknown {
		t.Errorf("sex = %q %q", got.VictimSex, got.VictimSexDesc)
	}
	if got.VictimDescent != "Q" || got.VictimDescentDesc != Unknown {
		t.Errorf("descent = %q %q", got.VictimDescent, got.VictimDescentDesc)
	}
	if got.WeaponCategory != WeaponNone || got.HasWeapon {
		t.Errorf("weapon = %q, has = %v", got.WeaponCategory, got.HasWeapon)
	}
	if !got.CaseClosed {
		t.Errorf("status JA should be closed")
	}
	if got.CrimeSeverity.Valid {
		t.Errorf("CrimeSeverity = %v; want null", got.CrimeSeverity)
	}
	if got.VictimAgeGroup != "0-17" {
		t.Errorf("VictimAgeGroup = %q", got.VictimAgeGroup)
	}
}

func TestCleanAndEnrichAreIdempotent(t *testing.T) {
	raw := []*models.RawRecord{validRaw("1"), validRaw("2"), validRaw("2"), validRaw("3")}
	raw[3].VictimAge = nullInt(-5)

	run := func() []*models.SilverRecord {
		cleaned, _ := NewCleaner(newTestLogger()).Clean(raw)
		table, _ := NewEnricher(newTestLogger()).Enrich(cleaned, testCollectedAt)
		return table.Records
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same input differ")
	}
	for _, r := range first {
		if r.IsViolent != (r.CrimeCategory == CategoryViolent) {
			t.Errorf("case %s: is_violent inconsistent with category", r.CrimeID.String)
		}
		if r.HasWeapon != (r.WeaponCategory != WeaponNone) {
			t.Errorf("case %s: has_weapon inconsistent with weapon category", r.CrimeID.String)
		}
	}
}
