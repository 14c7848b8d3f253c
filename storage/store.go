package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"crime-etl/config"
	"crime-etl/models"
	"crime-etl/utils"
)

// maxParams bounds the bind parameters of one INSERT. SQLite allows 32766
// and PostgreSQL 65535.
const maxParams = 30000

var identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store reads and writes the silver and gold layers through sqlx. It speaks
// both PostgreSQL and SQLite; on SQLite the silver and gold schemas are
// attached databases.
type Store struct {
	db         *sqlx.DB
	batchSize  int
	sqlitePath string
	logger     *utils.Logger
}

// Open connects to the configured database, retrying the initial ping with
// exponential back-off.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Store, error) {
	if cfg.DBDriver == config.DriverSQLite && cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("storage: create sqlite dir: %w", err)
		}
	}

	db, err := sqlx.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// attached schemas live on a single connection
		db.SetMaxOpenConns(1)
	}

	retry := &utils.RetryConfig{MaxAttempts: cfg.ConnectAttempts, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "ping "+cfg.Address(), func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	logger.Info("[storage] connected to %s", cfg.Address())

	s := New(db, cfg.BatchSize, logger)
	s.sqlitePath = cfg.SQLitePath
	return s, nil
}

// New wraps an open database handle.
func New(db *sqlx.DB, batchSize int, logger *utils.Logger) *Store {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &Store{db: db, batchSize: batchSize, sqlitePath: ":memory:", logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) isSQLite() bool {
	return s.db.DriverName() == config.DriverSQLite
}

// EnsureSchema creates the named schema if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context, schema string) error {
	if !identRegexp.MatchString(schema) || strings.Contains(schema, ".") {
		return fmt.Errorf("storage: invalid schema name %q", schema)
	}

	if !s.isSQLite() {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return fmt.Errorf("storage: create schema %s: %w", schema, err)
		}
		return nil
	}

	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM pragma_database_list WHERE name = ?", schema); err != nil {
		return fmt.Errorf("storage: list attached databases: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "ATTACH DATABASE ? AS "+schema, s.schemaFile(schema)); err != nil {
		return fmt.Errorf("storage: attach schema %s: %w", schema, err)
	}
	return nil
}

// schemaFile places an attached schema next to the main SQLite file, e.g.
// data/crime_data_gold.db.
func (s *Store) schemaFile(schema string) string {
	if s.sqlitePath == "" || s.sqlitePath == ":memory:" {
		return ":memory:"
	}
	ext := filepath.Ext(s.sqlitePath)
	return strings.TrimSuffix(s.sqlitePath, ext) + "_" + schema + ext
}

// ApplyDDL runs every statement of ddl in order.
func (s *Store) ApplyDDL(ctx context.Context, ddl string) error {
	stmts := SplitStatements(ddl)
	for i, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: ddl statement %d: %w", i+1, err)
		}
	}
	s.logger.Debug("[storage] applied %d ddl statements", len(stmts))
	return nil
}

// DropTables drops each table if it exists.
func (s *Store) DropTables(ctx context.Context, names ...string) error {
	for _, name := range names {
		if !identRegexp.MatchString(name) {
			return fmt.Errorf("storage: invalid table name %q", name)
		}
		query := "DROP TABLE IF EXISTS " + name
		if !s.isSQLite() {
			query += " CASCADE"
		}
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return &LoadError{Table: name, Op: "drop", Err: err}
		}
	}
	s.logger.Info("[storage] dropped %d tables", len(names))
	return nil
}

// WriteSilver replaces (truncate) or extends the contents of silver.crimes
// inside one transaction.
func (s *Store) WriteSilver(ctx context.Context, t *models.SilverTable, truncate bool) error {
	table := SilverTable(t)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &LoadError{Table: table.Name, Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if truncate {
		query := "TRUNCATE TABLE " + table.Name
		if s.isSQLite() {
			query = "DELETE FROM " + table.Name
		}
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return &LoadError{Table: table.Name, Op: "truncate", Err: err}
		}
	}
	if err := s.insertRows(ctx, tx, table); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &LoadError{Table: table.Name, Op: "commit", Err: err}
	}

	s.logger.Info("[storage] %s: wrote %d rows", table.Name, len(table.Rows))
	return nil
}

// LoadSilver reads silver.crimes back, with the column types reported by the
// driver.
func (s *Store) LoadSilver(ctx context.Context) (*models.SilverTable, error) {
	rows, err := s.db.Unsafe().QueryxContext(ctx, "SELECT * FROM "+SilverCrimes)
	if err != nil {
		return nil, fmt.Errorf("storage: query %s: %w", SilverCrimes, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("storage: column types: %w", err)
	}
	out := &models.SilverTable{Columns: make([]models.Column, len(types))}
	for i, ct := range types {
		out.Columns[i] = models.Column{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
	}

	for rows.Next() {
		rec := &models.SilverRecord{}
		if err := rows.StructScan(rec); err != nil {
			return nil, fmt.Errorf("storage: scan %s: %w", SilverCrimes, err)
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", SilverCrimes, err)
	}

	s.logger.Info("[storage] loaded %d rows from %s", len(out.Records), SilverCrimes)
	return out, nil
}

// LoadTable creates t and inserts its rows in one transaction. Creating a
// table that already exists fails the load.
func (s *Store) LoadTable(ctx context.Context, t *Table) error {
	if !identRegexp.MatchString(t.Name) {
		return &LoadError{Table: t.Name, Op: "create", Err: fmt.Errorf("invalid table name")}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &LoadError{Table: t.Name, Op: "begin", Err: err}
	}
	defer tx.Rollback()

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = c.Name + " " + c.DatabaseType
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return &LoadError{Table: t.Name, Op: "create", Err: err}
	}

	if err := s.insertRows(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &LoadError{Table: t.Name, Op: "commit", Err: err}
	}

	s.logger.Info("[storage] %s: loaded %d rows", t.Name, len(t.Rows))
	return nil
}

// insertRows writes t.Rows with multi-row INSERT statements.
func (s *Store) insertRows(ctx context.Context, tx *sqlx.Tx, t *Table) error {
	if len(t.Rows) == 0 || len(t.Columns) == 0 {
		return nil
	}

	perStmt := s.batchSize
	if limit := maxParams / len(t.Columns); perStmt > limit {
		perStmt = limit
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(t.Columns)), ",") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", t.Name, strings.Join(models.ColumnNames(t.Columns), ", "))

	for start := 0; start < len(t.Rows); start += perStmt {
		end := min(start+perStmt, len(t.Rows))
		batch := t.Rows[start:end]

		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(t.Columns))
		for i, row := range batch {
			if len(row) != len(t.Columns) {
				return &LoadError{Table: t.Name, Op: "insert",
					Err: fmt.Errorf("row %d has %d values for %d columns", start+i, len(row), len(t.Columns))}
			}
			values[i] = placeholder
			args = append(args, row...)
		}

		query := tx.Rebind(head + strings.Join(values, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &LoadError{Table: t.Name, Op: "insert", Err: err}
		}
		s.logger.Debug("[storage] %s: inserted rows %d-%d", t.Name, start+1, end)
	}
	return nil
}

// CountRows returns the number of rows stored in table.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if !identRegexp.MatchString(table) {
		return 0, fmt.Errorf("storage: invalid table name %q", table)
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("storage: count %s: %w", table, err)
	}
	return n, nil
}

// RecordRun appends a row to gold.etl_runs.
func (s *Store) RecordRun(ctx context.Context, r *models.RunReport) error {
	query := s.db.Rebind(`
		INSERT INTO ` + GoldRuns + ` (run_id, stage, started_at, finished_at, raw_rows, silver_rows, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		r.RunID, r.Stage, r.StartedAt, r.FinishedAt, r.RawRows, r.SilverRows, len(r.Warnings))
	if err != nil {
		return fmt.Errorf("storage: record run %s: %w", r.RunID, err)
	}
	return nil
}
