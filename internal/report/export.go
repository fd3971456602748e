package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/storage/archive"
)

// Bundle file names.
const (
	TradesCSVName       = "trades.csv"
	SummaryCSVName      = "summary.csv"
	CorrelationsCSVName = "correlations.csv"
	TradesParquetName   = "trades.parquet"
)

// Exporter writes report bundles for a backtest run.
type Exporter struct {
	logger *zap.Logger
}

func NewExporter(logger ...*zap.Logger) *Exporter {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Exporter{logger: l}
}

// Bundle renders every report artifact for a run, keyed by file name.
func (e *Exporter) Bundle(trades []backtest.Trade, summary backtest.Summary) (map[string][]byte, error) {
	pq, err := RenderTradesParquet(trades)
	if err != nil {
		return nil, fmt.Errorf("rendering parquet trades: %w", err)
	}
	return map[string][]byte{
		TradesCSVName:       []byte(RenderTradesCSV(trades)),
		SummaryCSVName:      []byte(RenderSummaryCSV(summary)),
		CorrelationsCSVName: []byte(RenderCorrelationsCSV(trades)),
		TradesParquetName:   pq,
	}, nil
}

// WriteDir writes a bundle into a local directory, creating it if needed.
func (e *Exporter) WriteDir(dir string, files map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	e.logger.Info("wrote report bundle", zap.String("dir", dir), zap.Int("files", len(files)))
	return nil
}

// Archive uploads a bundle under the run's archive prefix.
func (e *Exporter) Archive(ctx context.Context, store archive.Store, runID string, trades []backtest.Trade, files map[string][]byte) error {
	for name, data := range files {
		if err := store.Put(ctx, archive.RunPath(runID, name), data); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	e.logger.Info("archived report bundle",
		zap.String("run_id", runID),
		zap.Int("files", len(files)),
		zap.Time("first_buy_date", backtest.FirstBuyDate(trades)))
	return nil
}
