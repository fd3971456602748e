package backtest

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// tradingDaysPerYear annualizes the Sharpe ratio.
const tradingDaysPerYear = 252

// Summarize computes aggregate performance statistics over a trade set.
// Trades are re-sorted by buy date first, so insertion order never affects
// the time-ordered metrics (equity curve, drawdown, CAGR). Statistics that
// are undefined for the given data come back nil, never NaN or Inf.
func Summarize(trades []Trade) Summary {
	s := Summary{NumTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	sorted := sortByBuyDate(trades)

	returns := make([]float64, len(sorted))
	excess := make([]float64, len(sorted))
	wins := 0
	for i, t := range sorted {
		returns[i] = t.NetReturnPct
		excess[i] = t.NetReturnPct / 100
		if t.IsWin() {
			wins++
		}
	}

	s.AvgReturnPct = ptr(stat.Mean(returns, nil))
	s.BestTradePct = ptr(maxOf(returns))
	s.WorstTradePct = ptr(minOf(returns))
	s.WinRate = ptr(float64(wins) / float64(len(sorted)))

	equityFinal, maxDrawdown := equityCurve(excess)
	s.MaxDrawdownPct = ptr(maxDrawdown * 100)
	s.CAGR = cagr(equityFinal, elapsedDays(sorted))
	s.SharpeRatio = sharpe(excess)
	s.WinRatePValue = ptr(binomialPValue(wins, len(sorted)))

	return s
}

// sortByBuyDate is the named pre-step the time-series metrics depend on: a
// global ascending sort across all tickers, tie-broken by ticker and signal
// date so the ordering is total and deterministic.
func sortByBuyDate(trades []Trade) []Trade {
	sorted := make([]Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].BuyDate.Equal(sorted[j].BuyDate) {
			return sorted[i].BuyDate.Before(sorted[j].BuyDate)
		}
		if sorted[i].Ticker != sorted[j].Ticker {
			return sorted[i].Ticker < sorted[j].Ticker
		}
		return sorted[i].SignalDate.Before(sorted[j].SignalDate)
	})
	return sorted
}

// equityCurve compounds the per-trade returns and tracks the worst
// peak-to-trough decline. Returns the final equity multiple and the max
// drawdown as a non-positive fraction.
func equityCurve(excess []float64) (final, maxDrawdown float64) {
	equity := 1.0
	runningMax := 1.0
	for _, r := range excess {
		equity *= 1 + r
		if equity > runningMax {
			runningMax = equity
		}
		if dd := equity/runningMax - 1; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	return equity, maxDrawdown
}

// elapsedDays spans first buy to last sell over the sorted trade set.
func elapsedDays(sorted []Trade) int {
	firstBuy := sorted[0].BuyDate
	lastSell := sorted[0].SellDate
	for _, t := range sorted[1:] {
		if t.SellDate.After(lastSell) {
			lastSell = t.SellDate
		}
	}
	return int(lastSell.Sub(firstBuy).Hours() / 24)
}

// cagr annualizes the final equity multiple over actual elapsed calendar
// time. Undefined (nil) for zero or negative elapsed time, or when the
// equity multiple is non-positive.
func cagr(equityFinal float64, elapsed int) *float64 {
	if elapsed <= 0 || equityFinal <= 0 {
		return nil
	}
	return ptr(math.Pow(equityFinal, 365/float64(elapsed)) - 1)
}

// sharpe is mean excess return over its sample standard deviation,
// annualized by sqrt(252). Undefined (nil) when the returns have zero
// variance.
func sharpe(excess []float64) *float64 {
	sd := stat.StdDev(excess, nil)
	if !(sd > 0) {
		return nil
	}
	return ptr(stat.Mean(excess, nil) / sd * math.Sqrt(tradingDaysPerYear))
}

// binomialPValue is the one-sided exact binomial test: the probability of
// observing at least `wins` wins out of n under a fair-coin null.
func binomialPValue(wins, n int) float64 {
	if wins <= 0 {
		return 1
	}
	dist := distuv.Binomial{N: float64(n), P: 0.5}
	p := 1 - dist.CDF(float64(wins-1))
	// CDF rounding can push the complement a hair outside [0, 1].
	return math.Min(math.Max(p, 0), 1)
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func ptr(v float64) *float64 {
	return &v
}

// FirstBuyDate returns the earliest buy date in a trade set, or zero time
// for an empty set. Used by reporting to label summary periods.
func FirstBuyDate(trades []Trade) time.Time {
	if len(trades) == 0 {
		return time.Time{}
	}
	first := trades[0].BuyDate
	for _, t := range trades[1:] {
		if t.BuyDate.Before(first) {
			first = t.BuyDate
		}
	}
	return first
}
