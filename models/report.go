package models

import "time"

// StepCount records how many rows survived one cleaning filter.
type StepCount struct {
	Name      string
	Remaining int
	Dropped   int
}

// CleanReport holds the per-filter row counts of one Cleaner pass.
type CleanReport struct {
	Input  int
	Steps  []StepCount
	Output int
}

// TableCount holds the stored row count of one target table.
type TableCount struct {
	Table      string
	Rows       int64
	BackupPath string
}

// AreaTotal is the crime count of one area over the whole run.
type AreaTotal struct {
	Area   string
	Crimes int64
}

// RunReport summarises one pipeline invocation.
type RunReport struct {
	RunID      string
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time

	RawRows          int
	Clean            CleanReport
	DateParseDropped int
	SilverRows       int

	Warnings []string
	Tables   []TableCount
	TopAreas []AreaTotal
}

// Reduction returns the share of raw rows that did not reach silver, in percent.
func (r *RunReport) Reduction() float64 {
	if r.RawRows == 0 {
		return 0
	}
	return (1 - float64(r.SilverRows)/float64(r.RawRows)) * 100
}
