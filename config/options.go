package config

import "errors"

// RunOptions carries the run-scoped switches for one pipeline invocation.
// It is built by the CLI and passed explicitly to every stage.
type RunOptions struct {
	RawPath       string
	SilverDDLPath string
	GoldDDLPath   string

	// TruncateBeforeLoad empties silver.crimes and drops the gold tables
	// before loading. With it off, an existing gold table fails the load.
	TruncateBeforeLoad bool

	SaveCSVBackup bool
	BackupDir     string

	MetricsFile string
}

// DefaultRunOptions mirrors the defaults of the CLI flags.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		RawPath:            "Data Layer/raw/data_raw.csv",
		TruncateBeforeLoad: true,
		SaveCSVBackup:      true,
		BackupDir:          "Data Layer/gold",
	}
}

// Validate checks the options that every stage relies on.
func (o RunOptions) Validate() error {
	if o.SaveCSVBackup && o.BackupDir == "" {
		return errors.New("backup dir is required when CSV backups are enabled")
	}
	return nil
}
