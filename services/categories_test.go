package services

import (
	"database/sql"
	"testing"
)

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func nullInt(n int64) sql.NullInt64   { return sql.NullInt64{Int64: n, Valid: true} }

func TestCrimeCategory(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"BATTERY - SIMPLE ASSAULT", CategoryViolent},
		{"ROBBERY", CategoryViolent},
		{"Intimate Partner - Aggravated Assault", CategoryViolent},
		{"VEHICLE - STOLEN", CategoryProperty},
		{"THEFT PLAIN - PETTY ($950 & UNDER)", CategoryProperty},
		{"VANDALISM - FELONY ($400 & OVER, ALL CHURCH VANDALISMS)", CategoryQualityOfLife},
		{"TRESPASSING", CategoryQualityOfLife},
		{"IDENTITY THEFT", CategoryProperty},
		{"BRANDISH WEAPON", CategoryOtherCrime},
		{"", CategoryOtherCrime},
		// matches both violent and property keywords; violent has priority
		{"ROBBERY OF STOLEN VEHICLE", CategoryViolent},
	}

	for _, tt := range tests {
		if got := CrimeCategory(tt.desc); got != tt.want {
			t.Errorf("CrimeCategory(%q) = %q; want %q", tt.desc, got, tt.want)
		}
	}
}

func TestPremiseCategory(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"SINGLE FAMILY DWELLING", PremiseResidential},
		{"MULTI-UNIT DWELLING (APARTMENT, DUPLEX, ETC)", PremiseResidential},
		{"STREET", PremisePublic},
		{"PARKING LOT", PremisePublic},
		{"DEPARTMENT STORE", PremiseCommercial},
		{"BANK", PremiseCommercial},
		{"MTA BUS", PremiseOther},
		// "PARK" wins over "SHOP" by priority
		{"PARKING GARAGE OF SHOPPING MALL", PremisePublic},
	}

	for _, tt := range tests {
		if got := PremiseCategory(tt.desc); got != tt.want {
			t.Errorf("PremiseCategory(%q) = %q; want %q", tt.desc, got, tt.want)
		}
	}
}

func TestWeaponCategory(t *testing.T) {
	tests := []struct {
		desc sql.NullString
		want string
	}{
		{nullStr("HAND GUN"), WeaponFirearm},
		{nullStr("SEMI-AUTOMATIC RIFLE"), WeaponFirearm},
		{nullStr("KNIFE WITH BLADE 6INCHES OR LESS"), WeaponBlade},
		{nullStr("CLUB/BAT"), WeaponBluntObject},
		{nullStr("STRONG-ARM (HANDS, FIST, FEET OR BODILY FORCE)"), WeaponPhysicalForce},
		{nullStr("VERBAL THREAT"), WeaponOther},
		{nullStr(""), WeaponNone},
		{sql.NullString{}, WeaponNone},
	}

	for _, tt := range tests {
		if got := WeaponCategory(tt.desc); got != tt.want {
			t.Errorf("WeaponCategory(%q) = %q; want %q", tt.desc.String, got, tt.want)
		}
	}
}

func TestPeriodOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Night"},
		{4, "Night"},
		{5, "Morning"},
		{11, "Morning"},
		{12, "Afternoon"},
		{16, "Afternoon"},
		{17, "Evening"},
		{20, "Evening"},
		{21, "Night"},
		{23, "Night"},
	}

	for _, tt := range tests {
		if got := PeriodOfDay(tt.hour); got != tt.want {
			t.Errorf("PeriodOfDay(%d) = %q; want %q", tt.hour, got, tt.want)
		}
	}
}

func TestAgeGroup(t *testing.T) {
	tests := []struct {
		age  sql.NullInt64
		want string
	}{
		{sql.NullInt64{}, Unknown},
		{nullInt(-1), Unknown},
		{nullInt(0), Unknown},
		{nullInt(1), "0-17"},
		{nullInt(17), "0-17"},
		{nullInt(18), "18-25"},
		{nullInt(25), "18-25"},
		{nullInt(26), "26-35"},
		{nullInt(36), "36-50"},
		{nullInt(50), "36-50"},
		{nullInt(51), "51-65"},
		{nullInt(65), "51-65"},
		{nullInt(66), "65+"},
		{nullInt(120), "65+"},
	}

	for _, tt := range tests {
		if got := AgeGroup(tt.age); got != tt.want {
			t.Errorf("AgeGroup(%v) = %q; want %q", tt.age, got, tt.want)
		}
	}
}

func TestCodeDescriptions(t *testing.T) {
	if got := SexDescription(nullStr("F")); got != "Female" {
		t.Errorf("SexDescription(F) = %q", got)
	}
	if got := SexDescription(nullStr("H")); got != Unknown {
		t.Errorf("SexDescription(H) = %q", got)
	}
	if got := SexDescription(sql.NullString{}); got != Unknown {
		t.Errorf("SexDescription(null) = %q", got)
	}
	if got := DescentDescription(nullStr("H")); got != "Hispanic/Latino" {
		t.Errorf("DescentDescription(H) = %q", got)
	}
	if got := DescentDescription(nullStr("Q")); got != Unknown {
		t.Errorf("DescentDescription(Q) = %q", got)
	}
	if got := codeOrX(sql.NullString{}); got != "X" {
		t.Errorf("codeOrX(null) = %q", got)
	}
}

func TestSeverity(t *testing.T) {
	if got := Severity(nullInt(1)); got.String != SeveritySerious || !got.Valid {
		t.Errorf("Severity(1) = %v", got)
	}
	if got := Severity(nullInt(2)); got.String != SeverityMinor || !got.Valid {
		t.Errorf("Severity(2) = %v", got)
	}
	if got := Severity(nullInt(3)); got.Valid {
		t.Errorf("Severity(3) = %v, want null", got)
	}
}
