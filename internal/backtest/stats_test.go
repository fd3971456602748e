package backtest

import (
	"math"
	"testing"
)

func tradeAt(buy, sell string, netPct float64) Trade {
	return Trade{
		Ticker:       "TEST",
		SignalDate:   day(buy),
		BuyDate:      day(buy),
		SellDate:     day(sell),
		NetReturnPct: netPct,
		ExitReason:   ExitTime,
	}
}

func approx(t *testing.T, name string, got *float64, want, tol float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if math.Abs(*got-want) > tol {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	if s.NumTrades != 0 {
		t.Errorf("NumTrades = %d, want 0", s.NumTrades)
	}
	for name, v := range map[string]*float64{
		"avg_return_pct":   s.AvgReturnPct,
		"win_rate":         s.WinRate,
		"best_trade_pct":   s.BestTradePct,
		"worst_trade_pct":  s.WorstTradePct,
		"sharpe_ratio":     s.SharpeRatio,
		"max_drawdown_pct": s.MaxDrawdownPct,
		"cagr":             s.CAGR,
		"win_rate_p_value": s.WinRatePValue,
	} {
		if v != nil {
			t.Errorf("%s = %v, want nil for empty input", name, *v)
		}
	}
}

func TestSummarize_BasicDistribution(t *testing.T) {
	trades := []Trade{
		tradeAt("2023-01-01", "2023-06-30", 10.0),
		tradeAt("2023-02-01", "2023-07-31", -5.0),
		tradeAt("2023-03-01", "2023-08-28", 8.0),
	}

	s := Summarize(trades)

	if s.NumTrades != 3 {
		t.Fatalf("NumTrades = %d, want 3", s.NumTrades)
	}
	approx(t, "AvgReturnPct", s.AvgReturnPct, 4.3333, 0.001)
	approx(t, "WinRate", s.WinRate, 0.6667, 0.001)
	approx(t, "BestTradePct", s.BestTradePct, 10.0, 1e-9)
	approx(t, "WorstTradePct", s.WorstTradePct, -5.0, 1e-9)
}

func TestSummarize_MaxDrawdown(t *testing.T) {
	// Equity: 1.10, 0.88 (peak 1.10) -> drawdown -20%.
	trades := []Trade{
		tradeAt("2023-01-01", "2023-02-01", 10.0),
		tradeAt("2023-03-01", "2023-04-01", -20.0),
	}

	s := Summarize(trades)
	approx(t, "MaxDrawdownPct", s.MaxDrawdownPct, -20.0, 1e-9)
}

func TestSummarize_CAGRIsTimeWeighted(t *testing.T) {
	// One trade doubling over exactly two calendar years: CAGR should be
	// close to 2^(1/2)-1, not a per-trade-count annualization.
	trades := []Trade{tradeAt("2021-01-01", "2023-01-01", 100.0)}

	s := Summarize(trades)
	if s.CAGR == nil {
		t.Fatal("CAGR = nil")
	}
	if *s.CAGR <= 0.40 || *s.CAGR >= 0.42 {
		t.Errorf("CAGR = %v, want strictly between 0.40 and 0.42", *s.CAGR)
	}
}

func TestSummarize_CAGRUndefinedForZeroElapsed(t *testing.T) {
	// Same-day buy and sell: zero elapsed time must not raise.
	trades := []Trade{tradeAt("2023-01-01", "2023-01-01", 5.0)}

	s := Summarize(trades)
	if s.CAGR != nil {
		t.Errorf("CAGR = %v, want nil for zero elapsed days", *s.CAGR)
	}
}

func TestSummarize_SharpeUndefinedForZeroVariance(t *testing.T) {
	trades := []Trade{
		tradeAt("2023-01-01", "2023-02-01", 5.0),
		tradeAt("2023-03-01", "2023-04-01", 5.0),
	}

	s := Summarize(trades)
	if s.SharpeRatio != nil {
		t.Errorf("SharpeRatio = %v, want nil for zero variance", *s.SharpeRatio)
	}
}

func TestSummarize_Sharpe(t *testing.T) {
	trades := []Trade{
		tradeAt("2023-01-01", "2023-02-01", 10.0),
		tradeAt("2023-03-01", "2023-04-01", -5.0),
		tradeAt("2023-05-01", "2023-06-01", 8.0),
	}

	s := Summarize(trades)
	// mean = 0.04333..., sample std = 0.081445..., annualized by sqrt(252).
	approx(t, "SharpeRatio", s.SharpeRatio, 0.0433333/0.0814453*math.Sqrt(252), 0.01)
}

func TestSummarize_WinRatePValue(t *testing.T) {
	// 3 wins out of 3 under a fair coin: P = 0.5^3 = 0.125.
	all := []Trade{
		tradeAt("2023-01-01", "2023-02-01", 1.0),
		tradeAt("2023-03-01", "2023-04-01", 2.0),
		tradeAt("2023-05-01", "2023-06-01", 3.0),
	}
	s := Summarize(all)
	approx(t, "WinRatePValue", s.WinRatePValue, 0.125, 1e-9)

	// 2 wins out of 3: P[X >= 2] = 4/8 = 0.5.
	mixed := append([]Trade{}, all...)
	mixed[0].NetReturnPct = -1.0
	s = Summarize(mixed)
	approx(t, "WinRatePValue", s.WinRatePValue, 0.5, 1e-9)

	// 0 wins: the one-sided "greater" test is maximally insignificant.
	for i := range mixed {
		mixed[i].NetReturnPct = -1.0
	}
	s = Summarize(mixed)
	approx(t, "WinRatePValue", s.WinRatePValue, 1.0, 1e-9)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	trades := []Trade{
		tradeAt("2023-01-01", "2023-02-01", 10.0),
		tradeAt("2023-03-01", "2023-04-01", -20.0),
		tradeAt("2023-05-01", "2023-06-01", 15.0),
	}
	shuffled := []Trade{trades[2], trades[0], trades[1]}

	a := Summarize(trades)
	b := Summarize(shuffled)

	if *a.MaxDrawdownPct != *b.MaxDrawdownPct {
		t.Errorf("drawdown depends on insertion order: %v vs %v",
			*a.MaxDrawdownPct, *b.MaxDrawdownPct)
	}
	if *a.CAGR != *b.CAGR {
		t.Errorf("CAGR depends on insertion order: %v vs %v", *a.CAGR, *b.CAGR)
	}
}

func TestSummary_Map(t *testing.T) {
	s := Summarize([]Trade{tradeAt("2023-01-01", "2023-06-30", 10.0)})
	m := s.Map()

	if m["num_trades"] != 1 {
		t.Errorf("num_trades = %v", m["num_trades"])
	}
	if m["avg_return_pct"] != 10.0 {
		t.Errorf("avg_return_pct = %v", m["avg_return_pct"])
	}
	// Single trade: zero variance, Sharpe undefined.
	if m["sharpe_ratio"] != nil {
		t.Errorf("sharpe_ratio = %v, want nil", m["sharpe_ratio"])
	}
	for _, name := range MetricNames {
		if _, ok := m[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}
