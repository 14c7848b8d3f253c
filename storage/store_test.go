package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crime-etl/models"
	"crime-etl/utils"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return New(db, 2, utils.NewNopLogger())
}

func silverRecord(id string) *models.SilverRecord {
	occurred := time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC)
	return &models.SilverRecord{
		CrimeID:            sql.NullString{String: id, Valid: true},
		DateReported:       sql.NullTime{Time: occurred.AddDate(0, 0, 1), Valid: true},
		DateOccurred:       sql.NullTime{Time: occurred, Valid: true},
		TimeOccurred:       2230,
		Hour:               sql.NullInt64{Int64: 22, Valid: true},
		DayOfWeek:          2,
		DayName:            "Wednesday",
		PeriodOfDay:        "Night",
		AreaCode:           sql.NullInt64{Int64: 3, Valid: true},
		AreaName:           "Southwest",
		DistrictCode:       sql.NullInt64{Int64: 377, Valid: true},
		CrimeSeverity:      sql.NullString{String: "Minor", Valid: true},
		CrimeCode:          sql.NullInt64{Int64: 624, Valid: true},
		CrimeDescription:   "BATTERY - SIMPLE ASSAULT",
		CrimeCategory:      "Violent Crime",
		VictimAge:          sql.NullInt64{Int64: 36, Valid: true},
		VictimAgeGroup:     "36-50",
		VictimSex:          "F",
		VictimSexDesc:      "Female",
		VictimDescent:      "B",
		VictimDescentDesc:  "Black",
		PremiseCode:        sql.NullInt64{Int64: 501, Valid: true},
		PremiseDescription: "SINGLE FAMILY DWELLING",
		PremiseCategory:    "Residential",
		WeaponDescription:  sql.NullString{},
		WeaponCategory:     "No Weapon",
		IsViolent:          true,
		StatusCode:         "AO",
		StatusDescription:  sql.NullString{String: "Adult Other", Valid: true},
		Latitude:           sql.NullFloat64{Float64: 34.0141, Valid: true},
		Longitude:          sql.NullFloat64{Float64: -118.2978, Valid: true},
		Location:           "1100 W  39TH  PL",
		Year:               2020,
		Month:              1,
		Quarter:            1,
		CollectedAt:        time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func silverTable(ids ...string) *models.SilverTable {
	t := &models.SilverTable{Columns: models.SilverColumns}
	for _, id := range ids {
		t.Records = append(t.Records, silverRecord(id))
	}
	return t
}

func prepareSilver(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx, "silver"))
	require.NoError(t, s.ApplyDDL(ctx, DefaultSilverDDL))
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureSchema(ctx, "gold"))
	require.NoError(t, s.EnsureSchema(ctx, "gold"))
	assert.Error(t, s.EnsureSchema(ctx, "gold; DROP TABLE x"))
}

func TestSchemaFile(t *testing.T) {
	s := &Store{sqlitePath: "data/crime_data.db"}
	assert.Equal(t, "data/crime_data_gold.db", s.schemaFile("gold"))

	s.sqlitePath = ":memory:"
	assert.Equal(t, ":memory:", s.schemaFile("silver"))
}

func TestWriteAndLoadSilver(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	prepareSilver(t, s)

	// five rows with a batch size of two exercise the partial last batch
	in := silverTable("1", "2", "3", "4", "5")
	in.Records[1].Latitude = sql.NullFloat64{}
	in.Records[2].WeaponDescription = sql.NullString{String: "HAND GUN", Valid: true}
	in.Records[2].HasWeapon = true
	require.NoError(t, s.WriteSilver(ctx, in, true))

	n, err := s.CountRows(ctx, SilverCrimes)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	out, err := s.LoadSilver(ctx)
	require.NoError(t, err)
	require.Len(t, out.Records, 5)
	require.Len(t, out.Columns, len(models.SilverColumns))
	assert.Equal(t, models.ColumnNames(models.SilverColumns), models.ColumnNames(out.Columns))

	got, want := out.Records[0], in.Records[0]
	assert.Equal(t, want.CrimeID, got.CrimeID)
	assert.True(t, want.DateOccurred.Time.Equal(got.DateOccurred.Time))
	assert.True(t, want.CollectedAt.Equal(got.CollectedAt))
	assert.Equal(t, want.Hour, got.Hour)
	assert.Equal(t, want.AreaName, got.AreaName)
	assert.Equal(t, want.IsViolent, got.IsViolent)
	assert.False(t, got.HasWeapon)
	assert.InDelta(t, want.Latitude.Float64, got.Latitude.Float64, 1e-9)

	assert.False(t, out.Records[1].Latitude.Valid)
	assert.Equal(t, "HAND GUN", out.Records[2].WeaponDescription.String)
	assert.True(t, out.Records[2].HasWeapon)
}

func TestWriteSilverTruncate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	prepareSilver(t, s)

	require.NoError(t, s.WriteSilver(ctx, silverTable("1", "2"), true))
	require.NoError(t, s.WriteSilver(ctx, silverTable("3"), false))
	n, err := s.CountRows(ctx, SilverCrimes)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, s.WriteSilver(ctx, silverTable("4", "5"), true))
	n, err = s.CountRows(ctx, SilverCrimes)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestLoadTable(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx, "gold"))

	table := &Table{
		Name: GoldDimArea,
		Columns: []models.Column{
			{Name: "area_code", DatabaseType: "INTEGER"},
			{Name: "area_name", DatabaseType: "TEXT"},
			{Name: "sk_area", DatabaseType: "BIGINT"},
			{Name: "region", DatabaseType: "TEXT"},
		},
		Rows: [][]any{
			{int64(1), "Central", int64(1), "Central"},
			{int64(3), "Southwest", int64(2), "South"},
			{int64(5), "Harbor", int64(3), "South"},
		},
	}
	require.NoError(t, s.LoadTable(ctx, table))

	n, err := s.CountRows(ctx, GoldDimArea)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	err = s.LoadTable(ctx, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoadFailed))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "create", le.Op)
	assert.Equal(t, GoldDimArea, le.Table)

	require.NoError(t, s.DropTables(ctx, GoldDimArea))
	_, err = s.CountRows(ctx, GoldDimArea)
	assert.Error(t, err)

	require.NoError(t, s.LoadTable(ctx, table))
}

func TestLoadTableRowWidthMismatch(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	table := &Table{
		Name:    "dim_bad",
		Columns: []models.Column{{Name: "a", DatabaseType: "INTEGER"}, {Name: "b", DatabaseType: "TEXT"}},
		Rows:    [][]any{{int64(1), "x"}, {int64(2)}},
	}
	err := s.LoadTable(ctx, table)
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "insert", le.Op)

	// the failed transaction leaves no table behind
	_, err = s.CountRows(ctx, "dim_bad")
	assert.Error(t, err)
}

func TestDropTablesRejectsBadNames(t *testing.T) {
	s := setupTestDB(t)
	err := s.DropTables(context.Background(), "gold.dim_date; --")
	assert.Error(t, err)
}

func TestRecordRun(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx, "gold"))
	require.NoError(t, s.ApplyDDL(ctx, DefaultGoldDDL))

	start := time.Now().UTC()
	r := &models.RunReport{
		RunID:      "run-1",
		Stage:      "gold",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		SilverRows: 42,
		Warnings:   []string{"w"},
	}
	require.NoError(t, s.RecordRun(ctx, r))

	var got struct {
		Stage      string `db:"stage"`
		SilverRows int64  `db:"silver_rows"`
		Warnings   int    `db:"warnings"`
	}
	require.NoError(t, s.db.GetContext(ctx, &got,
		"SELECT stage, silver_rows, warnings FROM "+GoldRuns+" WHERE run_id = ?", "run-1"))
	assert.Equal(t, "gold", got.Stage)
	assert.EqualValues(t, 42, got.SilverRows)
	assert.Equal(t, 1, got.Warnings)

	// the run id is the primary key
	assert.Error(t, s.RecordRun(ctx, r))
}
