package storage

import (
	"database/sql/driver"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"crime-etl/utils"
)

// BackupWriter mirrors loaded tables to CSV files, one file per table.
type BackupWriter struct {
	dir    string
	logger *utils.Logger
}

// NewBackupWriter creates the backup directory if needed.
func NewBackupWriter(dir string, logger *utils.Logger) (*BackupWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create backup dir: %w", err)
	}
	return &BackupWriter{dir: dir, logger: logger}, nil
}

// WriteTable writes t to <dir>/<table>.csv, replacing any previous file, and
// returns the file path. Nulls are written as empty fields.
func (b *BackupWriter) WriteTable(t *Table) (string, error) {
	path := filepath.Join(b.dir, t.BaseName()+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("csv: write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v, t.Columns[i].DatabaseType)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv: flush %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("csv: close %q: %w", path, err)
	}

	b.logger.Debug("[backup] %s: %d rows → %s", t.Name, len(t.Rows), path)
	return path, nil
}

func formatCell(v any, dbType string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if strings.EqualFold(dbType, "DATE") {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case driver.Valuer:
		val, err := x.Value()
		if err != nil {
			return ""
		}
		return formatCell(val, dbType)
	default:
		return fmt.Sprint(x)
	}
}
