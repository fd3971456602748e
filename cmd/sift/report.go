package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/config"
	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/report"
	"github.com/siftquant/sift/internal/storage/archive"
	"github.com/siftquant/sift/internal/storage/sqlite"
)

var (
	reportRunID     string
	reportOutputDir string
	reportArchive   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a backtest run as CSV and Parquet",
	Long: `Export the trade log, summary statistics, and metric-return correlations
for a backtest run. Defaults to the most recent run. Bundles can be written
to a local directory, pushed to the configured archive, or both.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "backtest run to export (default latest)")
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "", "directory to write the bundle to")
	reportCmd.Flags().BoolVar(&reportArchive, "archive", false, "push the bundle to the configured archive")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportOutputDir == "" && !reportArchive {
		return fmt.Errorf("nothing to do: pass --output-dir and/or --archive")
	}

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	var run sqlite.Run
	if reportRunID != "" {
		run, err = store.GetRun(ctx, reportRunID)
	} else {
		run, err = store.LatestRun(ctx)
	}
	if errors.Is(err, core.ErrNoData) {
		return fmt.Errorf("no matching backtest run; run backtest first")
	}
	if err != nil {
		return err
	}

	trades, err := store.LoadTrades(ctx, run.ID)
	if err != nil {
		return err
	}

	exporter := report.NewExporter(log)
	files, err := exporter.Bundle(trades, run.Summary)
	if err != nil {
		return err
	}

	if reportOutputDir != "" {
		if err := exporter.WriteDir(reportOutputDir, files); err != nil {
			return err
		}
		fmt.Printf("Wrote %d files to %s\n", len(files), reportOutputDir)
	}

	if reportArchive {
		archiveStore, err := archive.New(archiveConfig(cfg))
		if err != nil {
			return err
		}
		if err := exporter.Archive(ctx, archiveStore, run.ID, trades, files); err != nil {
			return err
		}
		log.Info("report archived", zap.String("run_id", run.ID))
		fmt.Printf("Archived run %s\n", run.ID)

		reg := metrics.NewRegistry()
		reg.RecordReportArchived()
		pushMetrics(log, cfg, reg)
	}

	return nil
}

// archiveConfig maps the file configuration onto the archive backend config.
func archiveConfig(cfg *config.Config) archive.Config {
	return archive.Config{
		Type: cfg.Storage.Archive.Type,
		Path: cfg.Storage.Archive.Path,
		S3: archive.S3Config{
			Bucket:    cfg.Storage.Archive.S3.Bucket,
			Endpoint:  cfg.Storage.Archive.S3.Endpoint,
			Region:    cfg.Storage.Archive.S3.Region,
			AccessKey: cfg.Storage.Archive.S3.AccessKey,
			SecretKey: cfg.Storage.Archive.S3.SecretKey,
			Prefix:    cfg.Storage.Archive.S3.Prefix,
		},
	}
}
