package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/storage/sqlite"
	"github.com/siftquant/sift/internal/timeline"
)

var (
	backtestHoldDays int
	backtestCostBps  float64
	backtestDelay    int
	backtestStart    string
	backtestEnd      string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate trades from stored screening signals",
	Long: `Replay stored screening signals against historical prices, simulate
buy-and-hold trades, and print aggregate performance statistics. The run
and its trades are persisted for reporting.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().IntVar(&backtestHoldDays, "hold-days", 0, "holding period in calendar days (default from config)")
	backtestCmd.Flags().Float64Var(&backtestCostBps, "transaction-cost-bps", -1, "one-way transaction cost in basis points (default from config)")
	backtestCmd.Flags().IntVar(&backtestDelay, "filing-delay-days", -1, "days between signal and earliest execution (default from config)")
	backtestCmd.Flags().StringVar(&backtestStart, "start", "", "earliest signal date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "latest signal date YYYY-MM-DD")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	btCfg := cfg.Backtest
	if backtestHoldDays > 0 {
		btCfg.HoldDays = backtestHoldDays
	}
	if backtestCostBps >= 0 {
		btCfg.TransactionCostBps = backtestCostBps
	}
	if backtestDelay >= 0 {
		btCfg.FilingDelayDays = backtestDelay
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	signals, err := store.LoadSignals(ctx, backtestStart, backtestEnd)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		return fmt.Errorf("no screening signals stored; run screen first")
	}

	tickers := make([]string, 0, len(signals))
	seen := make(map[string]bool)
	for _, sig := range signals {
		if !seen[sig.Ticker] {
			seen[sig.Ticker] = true
			tickers = append(tickers, sig.Ticker)
		}
	}
	bars, err := store.LoadPrices(ctx, tickers)
	if err != nil {
		return err
	}

	sim, err := backtest.NewSimulator(timeline.NewResolver(bars), btCfg, log)
	if err != nil {
		return err
	}
	started := time.Now()
	trades := sim.Run(signals)
	summary := backtest.Summarize(trades)

	run := sqlite.Run{
		ID:      uuid.NewString(),
		Config:  btCfg,
		Summary: summary,
	}
	if err := store.SaveRun(ctx, run, trades); err != nil {
		return err
	}
	log.Info("backtest saved",
		zap.String("run_id", run.ID),
		zap.Int("trades", len(trades)))

	reg := metrics.NewRegistry()
	reg.RecordBacktest("ok", len(trades), time.Since(started).Seconds())
	pushMetrics(log, cfg, reg)

	printSummary(run.ID, btCfg, summary)
	return nil
}

func printSummary(runID string, cfg backtest.Config, s backtest.Summary) {
	fmt.Println("=== Backtest Summary ===")
	fmt.Printf("Run:          %s\n", runID)
	fmt.Printf("Hold period:  %d days (filing delay %d, cost %.1f bps)\n",
		cfg.HoldDays, cfg.FilingDelayDays, cfg.TransactionCostBps)
	fmt.Println()

	fmt.Printf("%-20s %d\n", "num_trades", s.NumTrades)
	values := s.Map()
	for _, name := range backtest.MetricNames {
		if name == "num_trades" {
			continue
		}
		if v, ok := values[name].(float64); ok {
			fmt.Printf("%-20s %.4f\n", name, v)
		} else {
			fmt.Printf("%-20s n/a\n", name)
		}
	}
}
