package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crime-etl/models"
	"crime-etl/utils"
)

const rawHeader = "DR_NO,Date Rptd,DATE OCC,TIME OCC,AREA,AREA NAME,Rpt Dist No,Part 1-2,Crm Cd,Crm Cd Desc,Mocodes,Vict Age,Vict Sex,Vict Descent,Premis Cd,Premis Desc,Weapon Used Cd,Weapon Desc,Status,Status Desc,LAT,LON,LOCATION\n"

func TestParseRaw(t *testing.T) {
	input := rawHeader +
		`200100001,01/08/2020 12:00:00 AM,01/08/2020 12:00:00 AM,0830,03,Southwest,0377,2,624,BATTERY - SIMPLE ASSAULT,0444 0913,36,F,B,501.0,SINGLE FAMILY DWELLING,400,"STRONG-ARM (HANDS, FIST, FEET OR BODILY FORCE)",AO,Adult Other,34.0141,-118.2978,1100 W  39TH  PL` + "\n" +
		`200100002,01/02/2020 12:00:00 AM,01/01/2020 12:00:00 AM,1200,01,Central,0163,1,330,BURGLARY FROM VEHICLE,,,,,abc,,,,IC,Invest Cont,,,` + "\n"

	rows, err := ParseRaw(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "200100001", r.CaseID.String)
	assert.EqualValues(t, 830, r.TimeOccurred.Int64)
	assert.EqualValues(t, 3, r.AreaCode.Int64)
	assert.EqualValues(t, 501, r.PremiseCode.Int64)
	assert.Equal(t, "STRONG-ARM (HANDS, FIST, FEET OR BODILY FORCE)", r.WeaponDescription.String)
	assert.InDelta(t, -118.2978, r.Longitude.Float64, 1e-9)
	assert.Equal(t, "1100 W  39TH  PL", r.Location.String)

	empty := rows[1]
	assert.False(t, empty.VictimAge.Valid)
	assert.False(t, empty.VictimSex.Valid)
	assert.False(t, empty.PremiseCode.Valid, "unparseable numbers become null")
	assert.False(t, empty.WeaponDescription.Valid)
	assert.False(t, empty.Latitude.Valid)
	assert.False(t, empty.Location.Valid)
}

func TestParseRawStripsBOM(t *testing.T) {
	input := "\ufeff" + rawHeader +
		"1,01/01/2020 12:00:00 AM,01/01/2020 12:00:00 AM,100,1,Central,101,1,624,BATTERY,,30,M,W,101,STREET,,,IC,Invest Cont,34.05,-118.25,MAIN ST\n"

	rows, err := ParseRaw(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].CaseID.String)
}

func TestParseRawMissingColumns(t *testing.T) {
	_, err := ParseRaw(strings.NewReader("DR_NO,AREA,LAT\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), ColDateOccurred)

	_, err = ParseRaw(strings.NewReader(""))
	assert.True(t, errors.Is(err, models.ErrSchemaMismatch))
}

func TestParseRawShortRow(t *testing.T) {
	rows, err := ParseRaw(strings.NewReader(rawHeader + "7,01/01/2020 12:00:00 AM\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].CaseID.String)
	assert.False(t, rows[0].Location.Valid)
}

func TestCSVReaderReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawHeader), 0644))

	rows, err := NewCSVReader(path, utils.NewNopLogger()).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = NewCSVReader(filepath.Join(t.TempDir(), "missing.csv"), utils.NewNopLogger()).ReadAll()
	assert.Error(t, err)
}
