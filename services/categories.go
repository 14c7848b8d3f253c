package services

import (
	"database/sql"
	"strings"
)

// Labels produced by the silver classifiers.
const (
	CategoryViolent       = "Violent Crime"
	CategoryProperty      = "Property Crime"
	CategoryQualityOfLife = "Quality of Life"
	CategoryOtherCrime    = "Other Crime"

	PremiseResidential = "Residential"
	PremisePublic      = "Public"
	PremiseCommercial  = "Commercial"
	PremiseOther       = "Other"

	WeaponFirearm       = "Firearm"
	WeaponBlade         = "Blade"
	WeaponBluntObject   = "Blunt Object"
	WeaponPhysicalForce = "Physical Force"
	WeaponNone          = "No Weapon"
	WeaponOther         = "Other Weapon"

	SeveritySerious = "Serious"
	SeverityMinor   = "Minor"

	Unknown = "Unknown"
)

// Keyword sets, matched as upper-case substrings.
var (
	ViolentCrimeKeywords  = []string{"HOMICIDE", "RAPE", "ROBBERY", "ASSAULT", "KIDNAP", "BATTERY"}
	PropertyCrimeKeywords = []string{"THEFT", "BURGLARY", "STOLEN", "VEHICLE", "SHOPLIFTING"}
	QualityOfLifeKeywords = []string{"VANDALISM", "TRESPASS", "DISTURBING"}

	ResidentialPremiseKeywords = []string{"DWELLING", "RESIDENCE", "HOUSE", "APARTMENT", "CONDOMINIUM"}
	PublicPremiseKeywords      = []string{"STREET", "SIDEWALK", "PARKING", "ALLEY", "PARK", "BEACH"}
	CommercialPremiseKeywords  = []string{"STORE", "SHOP", "RESTAURANT", "COMMERCIAL", "OFFICE", "BANK", "MARKET"}

	FirearmKeywords       = []string{"GUN", "FIREARM", "RIFLE", "REVOLVER"}
	BladeKeywords         = []string{"KNIFE", "BLADE", "CUTTING"}
	BluntObjectKeywords   = []string{"BLUNT", "CLUB", "BAT"}
	PhysicalForceKeywords = []string{"STRONG-ARM", "HANDS", "FIST"}
)

// ClosedStatusCodes are the status codes of cleared cases (adult/juvenile arrest).
var ClosedStatusCodes = map[string]bool{"AA": true, "JA": true}

var sexDescriptions = map[string]string{
	"M": "Male",
	"F": "Female",
	"X": Unknown,
	"H": Unknown,
	"-": Unknown,
}

var descentDescriptions = map[string]string{
	"A": "Other Asian",
	"B": "Black",
	"C": "Chinese",
	"D": "Cambodian",
	"F": "Filipino",
	"G": "Guamanian",
	"H": "Hispanic/Latino",
	"I": "American Indian",
	"J": "Japanese",
	"K": "Korean",
	"L": "Laotian",
	"O": "Other",
	"P": "Pacific Islander",
	"S": "Samoan",
	"U": "Hawaiian",
	"V": "Vietnamese",
	"W": "White",
	"X": Unknown,
	"Z": "Asian Indian",
	"-": Unknown,
}

// rule labels any text containing one of its keywords.
type rule struct {
	label    string
	keywords []string
}

func (r rule) matches(upper string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// classify returns the label of the first matching rule, or "" if none match.
func classify(text string, rules []rule) string {
	upper := strings.ToUpper(text)
	for _, r := range rules {
		if r.matches(upper) {
			return r.label
		}
	}
	return ""
}

var crimeRules = []rule{
	{CategoryViolent, ViolentCrimeKeywords},
	{CategoryProperty, PropertyCrimeKeywords},
	{CategoryQualityOfLife, QualityOfLifeKeywords},
}

var premiseRules = []rule{
	{PremiseResidential, ResidentialPremiseKeywords},
	{PremisePublic, PublicPremiseKeywords},
	{PremiseCommercial, CommercialPremiseKeywords},
}

var weaponRules = []rule{
	{WeaponFirearm, FirearmKeywords},
	{WeaponBlade, BladeKeywords},
	{WeaponBluntObject, BluntObjectKeywords},
	{WeaponPhysicalForce, PhysicalForceKeywords},
}

// CrimeCategory classifies a crime description.
func CrimeCategory(desc string) string {
	if label := classify(desc, crimeRules); label != "" {
		return label
	}
	return CategoryOtherCrime
}

// PremiseCategory classifies a premise description.
func PremiseCategory(desc string) string {
	if label := classify(desc, premiseRules); label != "" {
		return label
	}
	return PremiseOther
}

// WeaponCategory classifies a weapon description. A missing or empty
// description means no weapon was involved.
func WeaponCategory(desc sql.NullString) string {
	text := ""
	if desc.Valid {
		text = desc.String
	}
	if label := classify(text, weaponRules); label != "" {
		return label
	}
	if text == "" {
		return WeaponNone
	}
	return WeaponOther
}

// PeriodOfDay buckets an hour into the silver-layer day periods.
func PeriodOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

// AgeGroup buckets a victim age. Null and non-positive ages are Unknown.
func AgeGroup(age sql.NullInt64) string {
	if !age.Valid || age.Int64 <= 0 {
		return Unknown
	}
	switch a := age.Int64; {
	case a < 18:
		return "0-17"
	case a < 26:
		return "18-25"
	case a < 36:
		return "26-35"
	case a < 51:
		return "36-50"
	case a < 66:
		return "51-65"
	default:
		return "65+"
	}
}

// SexDescription maps a victim sex code to its description.
func SexDescription(code sql.NullString) string {
	return lookup(sexDescriptions, code)
}

// DescentDescription maps a victim descent code to its description.
func DescentDescription(code sql.NullString) string {
	return lookup(descentDescriptions, code)
}

func lookup(table map[string]string, code sql.NullString) string {
	if !code.Valid {
		return Unknown
	}
	if desc, ok := table[code.String]; ok {
		return desc
	}
	return Unknown
}

// Severity maps the crime part (1 or 2) to a severity label.
func Severity(part sql.NullInt64) sql.NullString {
	switch {
	case part.Valid && part.Int64 == 1:
		return sql.NullString{String: SeveritySerious, Valid: true}
	case part.Valid && part.Int64 == 2:
		return sql.NullString{String: SeverityMinor, Valid: true}
	default:
		return sql.NullString{}
	}
}

// codeOrX returns the raw code, or "X" when it is missing.
func codeOrX(code sql.NullString) string {
	if !code.Valid {
		return "X"
	}
	return code.String
}
