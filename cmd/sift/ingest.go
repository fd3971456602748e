package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siftquant/sift/internal/ingest"
	"github.com/siftquant/sift/internal/metrics"
)

var (
	ingestPrices       string
	ingestFundamentals string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load price and fundamental CSV files into the database",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPrices, "prices", "", "price bars CSV file")
	ingestCmd.Flags().StringVar(&ingestFundamentals, "fundamentals", "", "fundamental records CSV file")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestPrices == "" && ingestFundamentals == "" {
		return fmt.Errorf("nothing to ingest: pass --prices and/or --fundamentals")
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
	loader := ingest.NewLoader(log)
	reg := metrics.NewRegistry()
	defer pushMetrics(log, cfg, reg)

	if ingestPrices != "" {
		bars, res, err := loader.LoadPrices(ingestPrices)
		if err != nil {
			return err
		}
		if err := store.UpsertPrices(ctx, bars); err != nil {
			return err
		}
		reg.RecordIngest("prices", res.Loaded, res.Dropped)
		fmt.Printf("Prices: %d loaded, %d dropped\n", res.Loaded, res.Dropped)
	}

	if ingestFundamentals != "" {
		records, res, err := loader.LoadFinancials(ingestFundamentals)
		if err != nil {
			return err
		}
		if err := store.UpsertFinancials(ctx, records); err != nil {
			return err
		}
		reg.RecordIngest("fundamentals", res.Loaded, res.Dropped)
		fmt.Printf("Fundamentals: %d loaded, %d dropped\n", res.Loaded, res.Dropped)
	}

	return nil
}
