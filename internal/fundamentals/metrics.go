package fundamentals

import (
	"math"
	"sort"
	"time"

	"github.com/siftquant/sift/internal/core"
)

// epsilon guards divisions; denominators closer to zero than this make the
// ratio undefined rather than huge.
const epsilon = 1e-12

// SafeDiv divides two nullable values, returning nil when either side is
// missing or the denominator is effectively zero.
func SafeDiv(num, den *float64) *float64 {
	if num == nil || den == nil {
		return nil
	}
	if math.Abs(*den) < epsilon {
		return nil
	}
	return core.Float(*num / *den)
}

// PctChange is the fractional change from prev to cur, nil when either is
// missing or prev is effectively zero. The denominator is |prev| so signs
// behave for negative bases (e.g. a loss shrinking is positive growth).
func PctChange(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	if math.Abs(*prev) < epsilon {
		return nil
	}
	return core.Float((*cur - *prev) / math.Abs(*prev))
}

// Series is one ticker's financial records sorted ascending by period end.
// Metric derivation is positional: record i is compared against records
// i-1, i-3, and i-5 for the growth windows.
type Series struct {
	records []core.FinancialRecord
}

// NewSeries sorts the records by period end and wraps them. The caller is
// expected to pass a single ticker's records.
func NewSeries(records []core.FinancialRecord) *Series {
	sorted := make([]core.FinancialRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})
	return &Series{records: sorted}
}

// Len returns the number of periods in the series.
func (s *Series) Len() int { return len(s.records) }

// Record returns the i-th record in period order.
func (s *Series) Record(i int) core.FinancialRecord { return s.records[i] }

// LatestOnOrBefore returns the index of the most recent record with period
// end on or before asOf, or -1 when none qualifies. Screening uses this to
// avoid scoring a ticker on a filing dated after the screen date.
func (s *Series) LatestOnOrBefore(asOf time.Time) int {
	day := core.Day(asOf)
	for i := len(s.records) - 1; i >= 0; i-- {
		if !core.Day(s.records[i].PeriodEnd).After(day) {
			return i
		}
	}
	return -1
}

// At derives the metric snapshot for record i. Undefined metrics are simply
// absent from the map, so callers can distinguish "zero" from "unknown".
func (s *Series) At(i int) map[string]float64 {
	cur := s.records[i]
	var prev *core.FinancialRecord
	if i > 0 {
		prev = &s.records[i-1]
	}

	m := make(map[string]float64)
	set := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}

	prevField := func(get func(core.FinancialRecord) *float64) *float64 {
		if prev == nil {
			return nil
		}
		return get(*prev)
	}

	set("revenue_growth_1y", PctChange(cur.Revenue, prevField(func(r core.FinancialRecord) *float64 { return r.Revenue })))
	set("earnings_growth_1y", PctChange(cur.NetIncome, prevField(func(r core.FinancialRecord) *float64 { return r.NetIncome })))
	set("eps_growth_1y", PctChange(cur.EPS, prevField(func(r core.FinancialRecord) *float64 { return r.EPS })))
	set("operating_cash_flow_growth_1y", PctChange(cur.OperatingCashFlow,
		prevField(func(r core.FinancialRecord) *float64 { return r.OperatingCashFlow })))

	set("gross_margin", SafeDiv(cur.GrossProfit, cur.Revenue))
	set("operating_margin", SafeDiv(cur.OperatingIncome, cur.Revenue))
	set("net_margin", SafeDiv(cur.NetIncome, cur.Revenue))
	set("roe", SafeDiv(cur.NetIncome, cur.ShareholderEquity))
	set("debt_to_equity", SafeDiv(cur.TotalDebt, cur.ShareholderEquity))
	set("asset_turnover", SafeDiv(cur.Revenue, cur.TotalAssets))
	set("ps_ratio", SafeDiv(cur.MarketCap, cur.Revenue))
	set("free_cash_flow", cur.FreeCashFlow)
	set("current_ratio", cur.CurrentRatio)

	// Reported PE wins; fall back to price over EPS.
	if cur.PERatio != nil {
		m["pe_ratio"] = *cur.PERatio
	} else {
		set("pe_ratio", SafeDiv(cur.Price, cur.EPS))
	}

	// Multi-year growth windows over the annual series.
	s.setWindow(m, i, 3, "revenue_growth_3y", func(r core.FinancialRecord) *float64 { return r.Revenue })
	s.setWindow(m, i, 5, "revenue_growth_5y", func(r core.FinancialRecord) *float64 { return r.Revenue })
	s.setWindow(m, i, 3, "earnings_growth_3y", func(r core.FinancialRecord) *float64 { return r.NetIncome })
	s.setWindow(m, i, 5, "earnings_growth_5y", func(r core.FinancialRecord) *float64 { return r.NetIncome })
	s.setWindow(m, i, 3, "eps_growth_3y", func(r core.FinancialRecord) *float64 { return r.EPS })
	s.setWindow(m, i, 5, "eps_growth_5y", func(r core.FinancialRecord) *float64 { return r.EPS })

	// Revenue acceleration: change in the 1y growth rate between periods.
	if i >= 2 {
		curG := PctChange(cur.Revenue, s.records[i-1].Revenue)
		prevG := PctChange(s.records[i-1].Revenue, s.records[i-2].Revenue)
		if curG != nil && prevG != nil {
			m["revenue_acceleration"] = *curG - *prevG
		}
	}

	return m
}

func (s *Series) setWindow(m map[string]float64, i, periods int, name string,
	get func(core.FinancialRecord) *float64) {
	if i < periods {
		return
	}
	if v := PctChange(get(s.records[i]), get(s.records[i-periods])); v != nil {
		m[name] = *v
	}
}

// GroupByTicker splits a mixed record set into per-ticker series.
func GroupByTicker(records []core.FinancialRecord) map[string]*Series {
	byTicker := make(map[string][]core.FinancialRecord)
	for _, r := range records {
		if r.Ticker == "" {
			continue
		}
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}
	out := make(map[string]*Series, len(byTicker))
	for ticker, rs := range byTicker {
		out[ticker] = NewSeries(rs)
	}
	return out
}
