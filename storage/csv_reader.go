package storage

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cast"

	"crime-etl/models"
	"crime-etl/utils"
)

// Raw column headers of the source crime CSV.
const (
	ColCaseID             = "DR_NO"
	ColDateReported       = "Date Rptd"
	ColDateOccurred       = "DATE OCC"
	ColTimeOccurred       = "TIME OCC"
	ColAreaCode           = "AREA"
	ColAreaName           = "AREA NAME"
	ColDistrictCode       = "Rpt Dist No"
	ColCrimePart          = "Part 1-2"
	ColCrimeCode          = "Crm Cd"
	ColCrimeDescription   = "Crm Cd Desc"
	ColVictimAge          = "Vict Age"
	ColVictimSex          = "Vict Sex"
	ColVictimDescent      = "Vict Descent"
	ColPremiseCode        = "Premis Cd"
	ColPremiseDescription = "Premis Desc"
	ColWeaponCode         = "Weapon Used Cd"
	ColWeaponDescription  = "Weapon Desc"
	ColStatusCode         = "Status"
	ColStatusDescription  = "Status Desc"
	ColLatitude           = "LAT"
	ColLongitude          = "LON"
	ColLocation           = "LOCATION"
)

// RawColumns are the headers a raw CSV must carry. Other columns are ignored.
var RawColumns = []string{
	ColCaseID, ColDateReported, ColDateOccurred, ColTimeOccurred, ColAreaCode, ColAreaName,
	ColDistrictCode, ColCrimePart, ColCrimeCode, ColCrimeDescription, ColVictimAge, ColVictimSex,
	ColVictimDescent, ColPremiseCode, ColPremiseDescription, ColWeaponCode, ColWeaponDescription,
	ColStatusCode, ColStatusDescription, ColLatitude, ColLongitude, ColLocation,
}

// CSVReader loads the raw crime dataset from a CSV file.
type CSVReader struct {
	path   string
	logger *utils.Logger
}

// NewCSVReader creates a reader for the CSV file at path.
func NewCSVReader(path string, logger *utils.Logger) *CSVReader {
	return &CSVReader{path: path, logger: logger}
}

// ReadAll parses every row of the file.
func (c *CSVReader) ReadAll() ([]*models.RawRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path, err)
	}
	defer f.Close()

	rows, err := ParseRaw(f)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", c.path, err)
	}
	c.logger.Info("[reader] read %d raw rows from %s", len(rows), c.path)
	return rows, nil
}

// ParseRaw decodes a raw crime CSV. Empty fields and unparseable numbers
// become nulls. A missing required header is a models.ErrSchemaMismatch.
func ParseRaw(r io.Reader) ([]*models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, no header", models.ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range RawColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing raw columns %s", models.ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	var out []*models.RawRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+2, err)
		}

		field := func(col string) string {
			if i := index[col]; i < len(rec) {
				return rec[i]
			}
			return ""
		}
		out = append(out, &models.RawRecord{
			CaseID:             nullString(field(ColCaseID)),
			DateReported:       nullString(field(ColDateReported)),
			DateOccurred:       nullString(field(ColDateOccurred)),
			TimeOccurred:       nullInt(field(ColTimeOccurred)),
			AreaCode:           nullInt(field(ColAreaCode)),
			AreaName:           nullString(field(ColAreaName)),
			DistrictCode:       nullInt(field(ColDistrictCode)),
			CrimePart:          nullInt(field(ColCrimePart)),
			CrimeCode:          nullInt(field(ColCrimeCode)),
			CrimeDescription:   nullString(field(ColCrimeDescription)),
			VictimAge:          nullInt(field(ColVictimAge)),
			VictimSex:          nullString(field(ColVictimSex)),
			VictimDescent:      nullString(field(ColVictimDescent)),
			PremiseCode:        nullInt(field(ColPremiseCode)),
			PremiseDescription: nullString(field(ColPremiseDescription)),
			WeaponCode:         nullInt(field(ColWeaponCode)),
			WeaponDescription:  nullString(field(ColWeaponDescription)),
			StatusCode:         nullString(field(ColStatusCode)),
			StatusDescription:  nullString(field(ColStatusDescription)),
			Latitude:           nullFloat(field(ColLatitude)),
			Longitude:          nullFloat(field(ColLongitude)),
			Location:           nullString(field(ColLocation)),
		})
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullInt accepts integral and decimal spellings ("0830", "501.0").
func nullInt(s string) sql.NullInt64 {
	f := nullFloat(s)
	if !f.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f.Float64), Valid: true}
}

func nullFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
