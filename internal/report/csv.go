// Package report renders backtest results for export: trade logs and
// summaries as CSV, trade logs as Parquet, and a correlation table relating
// fundamental metrics at signal time to realized returns.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/core"
)

// minCorrelationPairs is the fewest observations a metric needs before its
// correlation with returns is worth reporting.
const minCorrelationPairs = 3

// RenderTradesCSV renders the trade log as a CSV string, one row per trade.
func RenderTradesCSV(trades []backtest.Trade) string {
	var sb strings.Builder

	sb.WriteString("ticker,signal_date,buy_date,sell_date,actual_hold_days,")
	sb.WriteString("buy_price,sell_price,net_return_pct,exit_reason\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%.6f,%.6f,%.6f,%s\n",
			t.Ticker,
			t.SignalDate.Format(core.DateLayout),
			t.BuyDate.Format(core.DateLayout),
			t.SellDate.Format(core.DateLayout),
			t.ActualHoldDays,
			t.BuyPrice,
			t.SellPrice,
			t.NetReturnPct,
			t.ExitReason,
		))
	}

	return sb.String()
}

// RenderSummaryCSV renders the summary as a two-column metric,value table.
// Undefined statistics render as empty cells, not zeros.
func RenderSummaryCSV(s backtest.Summary) string {
	var sb strings.Builder

	sb.WriteString("metric,value\n")
	values := s.Map()
	for _, name := range backtest.MetricNames {
		switch v := values[name].(type) {
		case nil:
			sb.WriteString(fmt.Sprintf("%s,\n", name))
		case int:
			sb.WriteString(fmt.Sprintf("%s,%d\n", name, v))
		case float64:
			sb.WriteString(fmt.Sprintf("%s,%.6f\n", name, v))
		}
	}

	return sb.String()
}

// RenderCorrelationsCSV renders the Pearson correlation between each
// fundamental metric captured at signal time and the realized net return.
// Metrics present on fewer than minCorrelationPairs trades are skipped.
func RenderCorrelationsCSV(trades []backtest.Trade) string {
	type pairs struct {
		metric  []float64
		returns []float64
	}
	byMetric := make(map[string]*pairs)
	for _, t := range trades {
		for name, v := range t.Metrics {
			p, ok := byMetric[name]
			if !ok {
				p = &pairs{}
				byMetric[name] = p
			}
			p.metric = append(p.metric, v)
			p.returns = append(p.returns, t.NetReturnPct)
		}
	}

	names := make([]string, 0, len(byMetric))
	for name := range byMetric {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("metric,correlation,num_trades\n")
	for _, name := range names {
		p := byMetric[name]
		if len(p.metric) < minCorrelationPairs {
			continue
		}
		corr := stat.Correlation(p.metric, p.returns, nil)
		if math.IsNaN(corr) {
			// Zero variance on either side, correlation is undefined.
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%.6f,%d\n", name, corr, len(p.metric)))
	}

	return sb.String()
}
