// Package ingest loads price bars and fundamental records from CSV files.
// Malformed rows are dropped and counted rather than failing the whole load.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/core"
)

// Result reports what a load produced.
type Result struct {
	Loaded  int
	Dropped int
}

// Loader reads CSV inputs into core types.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger ...*zap.Logger) *Loader {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Loader{logger: l}
}

// priceColumns is the required header for price CSV files.
var priceColumns = []string{"ticker", "date", "open", "high", "low", "close", "adj_close", "volume"}

// LoadPrices reads daily price bars from a CSV file. Rows with a bad date,
// an empty ticker, or a non-positive close are dropped.
func (l *Loader) LoadPrices(path string) ([]core.PriceBar, Result, error) {
	rows, err := readCSV(path, priceColumns)
	if err != nil {
		return nil, Result{}, err
	}

	var (
		bars []core.PriceBar
		res  Result
	)
	for _, row := range rows {
		bar, ok := parsePriceRow(row)
		if !ok {
			res.Dropped++
			continue
		}
		bars = append(bars, bar)
		res.Loaded++
	}

	l.logger.Info("loaded price bars",
		zap.String("path", path),
		zap.Int("loaded", res.Loaded),
		zap.Int("dropped", res.Dropped))
	return bars, res, nil
}

func parsePriceRow(row map[string]string) (core.PriceBar, bool) {
	date, err := core.ParseDate(row["date"])
	if err != nil {
		return core.PriceBar{}, false
	}
	// Close drives the simulation, so it is parsed strictly: a row whose
	// close is unparseable, non-finite, or non-positive is dropped rather
	// than coerced to zero.
	closePx, err := strconv.ParseFloat(strings.TrimSpace(row["close"]), 64)
	if err != nil || math.IsNaN(closePx) || math.IsInf(closePx, 0) || closePx <= 0 {
		return core.PriceBar{}, false
	}
	bar := core.PriceBar{
		Ticker:   strings.ToUpper(strings.TrimSpace(row["ticker"])),
		Date:     date,
		Open:     parseFloat(row["open"]),
		High:     parseFloat(row["high"]),
		Low:      parseFloat(row["low"]),
		Close:    closePx,
		AdjClose: parseFloat(row["adj_close"]),
	}
	bar.Volume = parseFloat(row["volume"])
	if !bar.IsValid() {
		return core.PriceBar{}, false
	}
	return bar, true
}

// financialColumns is the required header for fundamentals CSV files. The
// numeric columns beyond these are optional and read by name.
var financialColumns = []string{"ticker", "period_end"}

// LoadFinancials reads fundamental records from a CSV file. Numeric columns
// that are empty or unparseable stay nil so downstream metrics can skip them.
func (l *Loader) LoadFinancials(path string) ([]core.FinancialRecord, Result, error) {
	rows, err := readCSV(path, financialColumns)
	if err != nil {
		return nil, Result{}, err
	}

	var (
		records []core.FinancialRecord
		res     Result
	)
	for _, row := range rows {
		rec, ok := parseFinancialRow(row)
		if !ok {
			res.Dropped++
			continue
		}
		records = append(records, rec)
		res.Loaded++
	}

	l.logger.Info("loaded financial records",
		zap.String("path", path),
		zap.Int("loaded", res.Loaded),
		zap.Int("dropped", res.Dropped))
	return records, res, nil
}

func parseFinancialRow(row map[string]string) (core.FinancialRecord, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(row["ticker"]))
	if ticker == "" {
		return core.FinancialRecord{}, false
	}
	end, err := core.ParseDate(row["period_end"])
	if err != nil {
		return core.FinancialRecord{}, false
	}
	rec := core.FinancialRecord{
		Ticker:     ticker,
		PeriodEnd:  end,
		PeriodType: strings.TrimSpace(row["period_type"]),
		Currency:   strings.TrimSpace(row["currency"]),
	}
	if rec.PeriodType == "" {
		rec.PeriodType = "annual"
	}

	rec.Revenue = optFloat(row["revenue"])
	rec.NetIncome = optFloat(row["net_income"])
	rec.OperatingCashFlow = optFloat(row["operating_cash_flow"])
	rec.FreeCashFlow = optFloat(row["free_cash_flow"])
	rec.TotalAssets = optFloat(row["total_assets"])
	rec.TotalDebt = optFloat(row["total_debt"])
	rec.ShareholderEquity = optFloat(row["shareholder_equity"])
	rec.GrossProfit = optFloat(row["gross_profit"])
	rec.OperatingIncome = optFloat(row["operating_income"])
	rec.EPS = optFloat(row["eps"])
	rec.CurrentRatio = optFloat(row["current_ratio"])
	rec.PERatio = optFloat(row["pe_ratio"])
	rec.MarketCap = optFloat(row["market_cap"])
	rec.Price = optFloat(row["price"])
	return rec, true
}

// readCSV parses a headered CSV file into name-keyed rows.
func readCSV(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrParseFailed, fmt.Errorf("opening %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrParseFailed, fmt.Errorf("reading header of %s: %w", path, err))
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, core.WrapError(core.ErrParseFailed,
				fmt.Errorf("%s is missing required column %q", path, name))
		}
	}

	var rows []map[string]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrParseFailed, fmt.Errorf("reading %s: %w", path, err))
		}
		row := make(map[string]string, len(cols))
		for name, i := range cols {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func optFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
