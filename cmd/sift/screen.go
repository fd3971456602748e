package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/screen"
)

var screenAsOf string

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Score the universe against the fundamental criteria",
	Long: `Score every ticker's most recent filing against the screening criteria
and store the resulting signals. Signals drive the backtest command.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVar(&screenAsOf, "as-of", "", "screen date YYYY-MM-DD (default today)")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	asOf := core.Day(time.Now())
	if screenAsOf != "" {
		asOf, err = core.ParseDate(screenAsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date (expected YYYY-MM-DD): %w", err)
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.LoadFinancials(ctx, asOf.Format(core.DateLayout))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no financial records on or before %s; run ingest first", asOf.Format(core.DateLayout))
	}

	screener, err := screen.NewScreener(cfg.Screening, log)
	if err != nil {
		return err
	}
	started := time.Now()
	signals := screener.ScreenUniverse(records, asOf)
	if err := store.UpsertSignals(ctx, signals); err != nil {
		return err
	}

	fmt.Printf("=== Screen %s ===\n", asOf.Format(core.DateLayout))
	passed := 0
	for _, sig := range signals {
		if !sig.PassesScreen {
			continue
		}
		passed++
		fmt.Printf("%-8s score %d/%d  (%s)\n",
			sig.Ticker, sig.Score, screen.NumChecks, strings.Join(sig.CriteriaMet, ", "))
	}
	fmt.Printf("\n%d of %d tickers passed\n", passed, len(signals))

	reg := metrics.NewRegistry()
	reg.RecordScreen(passed, len(signals)-passed, time.Since(started).Seconds())
	pushMetrics(log, cfg, reg)
	return nil
}
