package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crime_etl_rows_total",
			Help: "Rows emitted by each pipeline stage",
		},
		[]string{"stage"},
	)

	RowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crime_etl_rows_rejected_total",
			Help: "Rows dropped by a cleaning or parsing filter",
		},
		[]string{"filter"},
	)

	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crime_etl_validation_issues_total",
			Help: "Silver validation findings by severity",
		},
		[]string{"severity"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crime_etl_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crime_etl_table_rows",
			Help: "Rows written to each target table in the last run",
		},
		[]string{"table"},
	)
)

// WriteTextfile dumps the default registry in the text exposition format,
// for pickup by a node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
