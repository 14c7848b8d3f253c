package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crime-etl/config"
	"crime-etl/metrics"
	"crime-etl/models"
	"crime-etl/storage"
	"crime-etl/utils"
)

// Stage names, as used in reports and metrics.
const (
	StageSilver = "silver"
	StageGold   = "gold"
	StageRun    = "run"
)

// topAreaCount is how many areas the run summary ranks.
const topAreaCount = 5

// Pipeline runs the raw → silver → gold stages. Stages run one after the
// other; nothing is processed concurrently.
type Pipeline struct {
	opts   config.RunOptions
	rules  ValidationRules
	logger *utils.Logger
	now    func() time.Time
}

// NewPipeline creates a Pipeline with the default validation rules.
func NewPipeline(opts config.RunOptions, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		opts:   opts,
		rules:  DefaultValidationRules(),
		logger: logger,
		now:    time.Now,
	}
}

// NewReport starts the report of one invocation with a fresh run id.
func (p *Pipeline) NewReport(stage string) *models.RunReport {
	return &models.RunReport{RunID: uuid.NewString(), Stage: stage, StartedAt: p.now()}
}

func (p *Pipeline) runLogger(r *models.RunReport) *utils.Logger {
	return p.logger.With("run_id", r.RunID)
}

// BuildSilver cleans and enriches raw rows. Every record carries the run's
// start time as collected_at.
func (p *Pipeline) BuildSilver(raw []*models.RawRecord, report *models.RunReport) *models.SilverTable {
	log := p.runLogger(report)

	cleaned, cr := NewCleaner(log).Clean(raw)
	table, dropped := NewEnricher(log).Enrich(cleaned, report.StartedAt)

	report.RawRows = len(raw)
	report.Clean = cr
	report.DateParseDropped = dropped
	report.SilverRows = len(table.Records)

	metrics.RowsProcessed.WithLabelValues("raw").Add(float64(len(raw)))
	metrics.RowsProcessed.WithLabelValues("cleaned").Add(float64(len(cleaned)))
	metrics.RowsProcessed.WithLabelValues(StageSilver).Add(float64(len(table.Records)))
	return table
}

// BuildGold validates silver and derives the star schema from it. On a
// validation failure the returned error is a *ValidationError and nothing is
// built.
func (p *Pipeline) BuildGold(silver *models.SilverTable, report *models.RunReport) (*models.GoldLayer, error) {
	log := p.runLogger(report)

	res, err := NewSilverValidator(p.rules, log).Validate(silver)
	if res != nil {
		report.Warnings = append(report.Warnings, res.Warnings...)
	}
	if err != nil {
		return nil, err
	}

	dims, maps := NewDimensionBuilder(log).Build(silver.Records)
	agg := NewAggregator(log)
	gold := &models.GoldLayer{
		Dimensions: dims,
		Facts:      NewFactBuilder(log).Build(silver.Records, maps),
		AreaMonth:  agg.AreaMonth(silver.Records),
		CrimeYear:  agg.CrimeYear(silver.Records),
	}
	report.TopAreas = TopAreas(gold.AreaMonth, topAreaCount)

	metrics.RowsProcessed.WithLabelValues("facts").Add(float64(len(gold.Facts)))
	return gold, nil
}

// RunSilver reads the raw dataset and replaces silver.crimes.
func (p *Pipeline) RunSilver(ctx context.Context, src storage.RawReader, store storage.SilverStore) (*models.RunReport, error) {
	report := p.NewReport(StageSilver)
	err := p.silverStage(ctx, src, store, report)
	report.FinishedAt = p.now()
	return report, err
}

// RunGold reads silver.crimes back and replaces the gold tables. backup may
// be nil when CSV backups are disabled.
func (p *Pipeline) RunGold(ctx context.Context, store storage.Warehouse, backup storage.TableBackup) (*models.RunReport, error) {
	report := p.NewReport(StageGold)
	err := p.goldStage(ctx, store, backup, report)
	report.FinishedAt = p.now()
	return report, err
}

// Run executes both stages under one run id.
func (p *Pipeline) Run(ctx context.Context, src storage.RawReader, store storage.Warehouse, backup storage.TableBackup) (*models.RunReport, error) {
	report := p.NewReport(StageRun)
	err := p.silverStage(ctx, src, store, report)
	if err == nil {
		err = p.goldStage(ctx, store, backup, report)
	}
	report.FinishedAt = p.now()
	return report, err
}

func (p *Pipeline) silverStage(ctx context.Context, src storage.RawReader, store storage.SilverStore, report *models.RunReport) error {
	defer observeStage(StageSilver, p.now())
	log := p.runLogger(report)

	ddl, err := storage.LoadDDL(p.opts.SilverDDLPath, storage.DefaultSilverDDL)
	if err != nil {
		return err
	}

	raw, err := src.ReadAll()
	if err != nil {
		return fmt.Errorf("read raw dataset: %w", err)
	}
	table := p.BuildSilver(raw, report)

	if err := store.EnsureSchema(ctx, StageSilver); err != nil {
		return err
	}
	if err := store.ApplyDDL(ctx, ddl); err != nil {
		return fmt.Errorf("apply silver ddl: %w", err)
	}
	if err := store.WriteSilver(ctx, table, p.opts.TruncateBeforeLoad); err != nil {
		return err
	}

	n, err := store.CountRows(ctx, storage.SilverCrimes)
	if err != nil {
		return err
	}
	report.Tables = append(report.Tables, models.TableCount{Table: storage.SilverCrimes, Rows: n})
	metrics.TableRows.WithLabelValues(storage.SilverCrimes).Set(float64(n))

	log.Info("[pipeline] silver stage done: %s raw → %s silver (%.1f%% reduction)",
		formatCount(report.RawRows), formatCount(report.SilverRows), report.Reduction())
	return nil
}

func (p *Pipeline) goldStage(ctx context.Context, store storage.Warehouse, backup storage.TableBackup, report *models.RunReport) error {
	defer observeStage(StageGold, p.now())
	log := p.runLogger(report)

	ddl, err := storage.LoadDDL(p.opts.GoldDDLPath, storage.DefaultGoldDDL)
	if err != nil {
		return err
	}

	silver, err := store.LoadSilver(ctx)
	if err != nil {
		return err
	}
	if report.Stage == StageGold {
		report.SilverRows = len(silver.Records)
	}

	// validation runs before any gold table is touched
	gold, err := p.BuildGold(silver, report)
	if err != nil {
		return err
	}

	if err := store.EnsureSchema(ctx, StageGold); err != nil {
		return err
	}
	if err := store.ApplyDDL(ctx, ddl); err != nil {
		return fmt.Errorf("apply gold ddl: %w", err)
	}
	if p.opts.TruncateBeforeLoad {
		if err := store.DropTables(ctx, storage.GoldTableNames...); err != nil {
			return err
		}
	}

	for _, t := range storage.GoldTables(gold) {
		if err := store.LoadTable(ctx, t); err != nil {
			return err
		}

		tc := models.TableCount{Table: t.Name}
		if p.opts.SaveCSVBackup && backup != nil {
			path, err := backup.WriteTable(t)
			if err != nil {
				return fmt.Errorf("backup %s: %w", t.Name, err)
			}
			tc.BackupPath = path
		}
		if tc.Rows, err = store.CountRows(ctx, t.Name); err != nil {
			return err
		}
		metrics.TableRows.WithLabelValues(t.Name).Set(float64(tc.Rows))
		report.Tables = append(report.Tables, tc)
	}

	report.FinishedAt = p.now()
	if err := store.RecordRun(ctx, report); err != nil {
		log.Warn("[pipeline] %v", err)
	}

	log.Info("[pipeline] gold stage done: %s facts, %d tables",
		formatCount(len(gold.Facts)), len(storage.GoldTableNames))
	return nil
}

func observeStage(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
