package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"crime-etl/config"
	"crime-etl/metrics"
	"crime-etl/models"
	"crime-etl/services"
	"crime-etl/storage"
	"crime-etl/utils"
)

// runFlags are shared by every command and map onto config.RunOptions.
type runFlags struct {
	Raw       string `help:"Raw crime CSV." default:"${raw_path}" env:"RAW_PATH" type:"path"`
	SilverDDL string `help:"Silver DDL script; the embedded script is used when empty." env:"SILVER_DDL_PATH" type:"path"`
	GoldDDL   string `help:"Gold DDL script; the embedded script is used when empty." env:"GOLD_DDL_PATH" type:"path"`

	Truncate  bool   `help:"Empty silver and drop the gold tables before loading." default:"true" negatable:"" env:"TRUNCATE_BEFORE_LOAD"`
	CSVBackup bool   `help:"Mirror every gold table to a CSV file." name:"csv-backup" default:"true" negatable:"" env:"SAVE_CSV_BACKUP"`
	BackupDir string `help:"Directory for gold CSV backups." default:"${backup_dir}" env:"BACKUP_DIR" type:"path"`

	MetricsFile string `help:"Write Prometheus metrics to this file after the run." env:"METRICS_FILE"`
}

func (f runFlags) options() config.RunOptions {
	return config.RunOptions{
		RawPath:            f.Raw,
		SilverDDLPath:      f.SilverDDL,
		GoldDDLPath:        f.GoldDDL,
		TruncateBeforeLoad: f.Truncate,
		SaveCSVBackup:      f.CSVBackup,
		BackupDir:          f.BackupDir,
		MetricsFile:        f.MetricsFile,
	}
}

type cli struct {
	Silver silverCmd `cmd:"" help:"Clean and enrich the raw CSV into silver.crimes."`
	Gold   goldCmd   `cmd:"" help:"Validate silver.crimes and rebuild the gold star schema."`
	Run    runCmd    `cmd:"" default:"1" help:"Run the silver and gold stages in sequence."`
}

type silverCmd struct {
	Flags runFlags `embed:""`
}

func (c *silverCmd) Run(ctx context.Context, a *app) error {
	return a.execute(ctx, c.Flags.options(), func(p *services.Pipeline, s *storage.Store, _ storage.TableBackup) (*models.RunReport, error) {
		return p.RunSilver(ctx, storage.NewCSVReader(c.Flags.Raw, a.logger), s)
	})
}

type goldCmd struct {
	Flags runFlags `embed:""`
}

func (c *goldCmd) Run(ctx context.Context, a *app) error {
	return a.execute(ctx, c.Flags.options(), func(p *services.Pipeline, s *storage.Store, b storage.TableBackup) (*models.RunReport, error) {
		return p.RunGold(ctx, s, b)
	})
}

type runCmd struct {
	Flags runFlags `embed:""`
}

func (c *runCmd) Run(ctx context.Context, a *app) error {
	return a.execute(ctx, c.Flags.options(), func(p *services.Pipeline, s *storage.Store, b storage.TableBackup) (*models.RunReport, error) {
		return p.Run(ctx, storage.NewCSVReader(c.Flags.Raw, a.logger), s, b)
	})
}

type stageFunc func(p *services.Pipeline, s *storage.Store, b storage.TableBackup) (*models.RunReport, error)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func (a *app) execute(ctx context.Context, opts config.RunOptions, stage stageFunc) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	store, err := storage.Open(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var backup storage.TableBackup
	if opts.SaveCSVBackup {
		w, err := storage.NewBackupWriter(opts.BackupDir, a.logger)
		if err != nil {
			return err
		}
		backup = w
	}

	report, err := stage(services.NewPipeline(opts, a.logger), store, backup)
	if opts.MetricsFile != "" {
		if werr := metrics.WriteTextfile(opts.MetricsFile); werr != nil {
			a.logger.Warn("[main] metrics: %v", werr)
		}
	}
	if err != nil {
		return err
	}

	services.PrintReport(os.Stdout, report)
	return nil
}

func main() {
	cfg := config.Load()
	defaults := config.DefaultRunOptions()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("crime-etl"),
		kong.Description("Builds the silver and gold layers of the crime dataset."),
		kong.UsageOnError(),
		kong.Vars{"raw_path": defaults.RawPath, "backup_dir": defaults.BackupDir},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	logger, err := utils.NewLoggerWith(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("[main] invalid config: %v", err)
		os.Exit(1)
	}

	logger.Info("=== Crime ETL starting: %s ===", kctx.Command())
	logger.Info("Config: driver %s | %s | batch size %d", cfg.DBDriver, cfg.Address(), cfg.BatchSize)

	if err := kctx.Run(&app{cfg: cfg, logger: logger}); err != nil {
		logger.Error("[main] %s failed: %v", kctx.Command(), err)
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}
