package storage

import (
	"context"

	"crime-etl/models"
)

// RawReader is the interface any raw dataset source must satisfy.
type RawReader interface {
	ReadAll() ([]*models.RawRecord, error)
}

// SilverStore persists and reloads the silver layer.
type SilverStore interface {
	EnsureSchema(ctx context.Context, schema string) error
	ApplyDDL(ctx context.Context, ddl string) error
	WriteSilver(ctx context.Context, t *models.SilverTable, truncate bool) error
	LoadSilver(ctx context.Context) (*models.SilverTable, error)
	CountRows(ctx context.Context, table string) (int64, error)
}

// GoldStore replaces the gold tables.
type GoldStore interface {
	EnsureSchema(ctx context.Context, schema string) error
	ApplyDDL(ctx context.Context, ddl string) error
	DropTables(ctx context.Context, names ...string) error
	LoadTable(ctx context.Context, t *Table) error
	CountRows(ctx context.Context, table string) (int64, error)
	RecordRun(ctx context.Context, r *models.RunReport) error
}

// Warehouse holds both layers, as the gold stage reads silver back.
type Warehouse interface {
	SilverStore
	GoldStore
}

// TableBackup mirrors a loaded table somewhere outside the database.
type TableBackup interface {
	WriteTable(t *Table) (string, error)
}

var (
	_ Warehouse   = (*Store)(nil)
	_ TableBackup = (*BackupWriter)(nil)
	_ RawReader   = (*CSVReader)(nil)
)
