package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/config"
	"github.com/siftquant/sift/internal/logger"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/storage/sqlite"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "SIFT - fundamental screening and trade simulation",
	Long: `SIFT screens companies on fundamental criteria, simulates buy signals
against historical prices, and reports risk and return statistics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// setup builds the logger and configuration every subcommand starts from.
// With no config file the defaults apply; --debug overrides the configured
// log level.
func setup() (*zap.Logger, *config.Config, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	if !debug && cfg.Logging.Level != "" {
		leveled, err := logger.NewWithLevel(cfg.Logging.Development, cfg.Logging.Level)
		if err != nil {
			return nil, nil, err
		}
		log = leveled
	}
	return log, cfg, nil
}

func openStore(cfg *config.Config) (*sqlite.Store, error) {
	store, err := sqlite.Open(cfg.Storage.Hot.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.Storage.Hot.DSN, err)
	}
	return store, nil
}

// pushMetrics ships a one-shot command's counters to the configured push
// gateway. A push failure is logged, never fatal: the command's real work
// already succeeded.
func pushMetrics(log *zap.Logger, cfg *config.Config, reg *metrics.Registry) {
	if cfg.Metrics.PushGateway == "" {
		return
	}
	if err := metrics.PushToGateway(cfg.Metrics.PushGateway, cfg.Metrics.Job, reg); err != nil {
		log.Warn("pushing metrics failed",
			zap.String("gateway", cfg.Metrics.PushGateway),
			zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
