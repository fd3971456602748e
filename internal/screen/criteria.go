package screen

import (
	"fmt"

	"github.com/siftquant/sift/internal/core"
)

// Criteria are the pass/fail thresholds a metric snapshot is scored
// against. A ticker passes when at least MinScore checks are met.
type Criteria struct {
	MinRevenueGrowth1Y  float64 `mapstructure:"min_revenue_growth_1y"`
	MinEarningsGrowth1Y float64 `mapstructure:"min_earnings_growth_1y"`
	MinNetMargin        float64 `mapstructure:"min_net_margin"`
	MaxPERatio          float64 `mapstructure:"max_pe_ratio"`
	MaxDebtToEquity     float64 `mapstructure:"max_debt_to_equity"`
	MinFreeCashFlow     float64 `mapstructure:"min_free_cash_flow"`
	MinScore            int     `mapstructure:"min_score"`
}

// NumChecks is how many individual criteria a snapshot is scored against.
const NumChecks = 6

// DefaultCriteria returns the standard growth-at-reasonable-price screen.
func DefaultCriteria() Criteria {
	return Criteria{
		MinRevenueGrowth1Y:  0.15,
		MinEarningsGrowth1Y: 0.15,
		MinNetMargin:        0.10,
		MaxPERatio:          30.0,
		MaxDebtToEquity:     2.0,
		MinFreeCashFlow:     0.0,
		MinScore:            5,
	}
}

// Validate checks the criteria for caller contract violations.
func (c Criteria) Validate() error {
	if c.MinScore < 0 || c.MinScore > NumChecks {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_score must be between 0 and %d, got %d", NumChecks, c.MinScore))
	}
	if c.MaxPERatio <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_pe_ratio must be positive, got %f", c.MaxPERatio))
	}
	return nil
}

type op int

const (
	opGreater op = iota
	opLess
)

type check struct {
	metric    string
	op        op
	threshold float64
}

// checks builds the scoring table. A metric absent from the snapshot fails
// its check; missing data never counts toward a pass.
func (c Criteria) checks() []check {
	return []check{
		{"revenue_growth_1y", opGreater, c.MinRevenueGrowth1Y},
		{"earnings_growth_1y", opGreater, c.MinEarningsGrowth1Y},
		{"net_margin", opGreater, c.MinNetMargin},
		{"pe_ratio", opLess, c.MaxPERatio},
		{"debt_to_equity", opLess, c.MaxDebtToEquity},
		{"free_cash_flow", opGreater, c.MinFreeCashFlow},
	}
}

// Score counts how many criteria the snapshot meets and names them.
func (c Criteria) Score(metrics map[string]float64) (int, []string) {
	var met []string
	for _, ch := range c.checks() {
		v, ok := metrics[ch.metric]
		if !ok {
			continue
		}
		pass := false
		switch ch.op {
		case opGreater:
			pass = v > ch.threshold
		case opLess:
			pass = v < ch.threshold
		}
		if pass {
			met = append(met, ch.metric)
		}
	}
	return len(met), met
}
