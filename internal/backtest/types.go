package backtest

import (
	"fmt"
	"time"

	"github.com/siftquant/sift/internal/core"
)

// ExitReason records how a simulated position was closed.
type ExitReason string

const (
	// ExitTime means the hold period elapsed and a bar was available.
	ExitTime ExitReason = "time_exit"
	// ExitEndOfData means the price series ended before the hold period did.
	ExitEndOfData ExitReason = "end_of_data"
)

// Config holds the simulation parameters. Immutable for the duration of a
// run.
type Config struct {
	HoldDays           int     `json:"hold_days" mapstructure:"hold_days"`                       // requested holding period, calendar days
	TransactionCostBps float64 `json:"transaction_cost_bps" mapstructure:"transaction_cost_bps"` // one-way cost; charged twice per round trip
	FilingDelayDays    int     `json:"filing_delay_days" mapstructure:"filing_delay_days"`       // lag between filing date and earliest execution
}

// DefaultConfig mirrors the standard screening workflow: six-month holds
// with a 45-day filing delay.
func DefaultConfig() Config {
	return Config{HoldDays: 180, TransactionCostBps: 0, FilingDelayDays: 45}
}

// Validate checks the configuration for caller contract violations.
func (c Config) Validate() error {
	if c.HoldDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("hold_days must be positive, got %d", c.HoldDays))
	}
	if c.TransactionCostBps < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("transaction_cost_bps cannot be negative, got %f", c.TransactionCostBps))
	}
	if c.FilingDelayDays < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("filing_delay_days cannot be negative, got %d", c.FilingDelayDays))
	}
	return nil
}

// Trade is one completed simulated round trip. Immutable once emitted.
type Trade struct {
	Ticker         string             `json:"ticker"`
	SignalDate     time.Time          `json:"signal_date"`
	BuyDate        time.Time          `json:"buy_date"`
	SellDate       time.Time          `json:"sell_date"`
	ActualHoldDays int                `json:"actual_hold_days"` // observed, not requested
	BuyPrice       float64            `json:"buy_price"`
	SellPrice      float64            `json:"sell_price"`
	NetReturnPct   float64            `json:"net_return_pct"`
	ExitReason     ExitReason         `json:"exit_reason"`
	Metrics        map[string]float64 `json:"metrics"` // signal snapshot, carried untouched
}

// IsWin returns true if the trade was profitable after costs.
func (t Trade) IsWin() bool {
	return t.NetReturnPct > 0
}

// Summary holds aggregate performance statistics. Pointer fields are nil
// when the statistic is undefined for the given trade set, which downstream
// consumers must distinguish from a computed zero.
type Summary struct {
	NumTrades      int      `json:"num_trades"`
	AvgReturnPct   *float64 `json:"avg_return_pct"`
	WinRate        *float64 `json:"win_rate"`
	BestTradePct   *float64 `json:"best_trade_pct"`
	WorstTradePct  *float64 `json:"worst_trade_pct"`
	SharpeRatio    *float64 `json:"sharpe_ratio"`
	MaxDrawdownPct *float64 `json:"max_drawdown_pct"`
	CAGR           *float64 `json:"cagr"`
	WinRatePValue  *float64 `json:"win_rate_p_value"`
}

// Map returns the summary as a flat metric-name to nullable-value mapping,
// the shape used by exports and the API.
func (s Summary) Map() map[string]any {
	m := map[string]any{"num_trades": s.NumTrades}
	put := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		} else {
			m[name] = nil
		}
	}
	put("avg_return_pct", s.AvgReturnPct)
	put("win_rate", s.WinRate)
	put("best_trade_pct", s.BestTradePct)
	put("worst_trade_pct", s.WorstTradePct)
	put("sharpe_ratio", s.SharpeRatio)
	put("max_drawdown_pct", s.MaxDrawdownPct)
	put("cagr", s.CAGR)
	put("win_rate_p_value", s.WinRatePValue)
	return m
}

// MetricNames lists the summary metrics in export order.
var MetricNames = []string{
	"num_trades",
	"avg_return_pct",
	"win_rate",
	"best_trade_pct",
	"worst_trade_pct",
	"sharpe_ratio",
	"max_drawdown_pct",
	"cagr",
	"win_rate_p_value",
}
