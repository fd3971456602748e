package fundamentals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftquant/sift/internal/core"
)

func period(ticker string, year int) core.FinancialRecord {
	return core.FinancialRecord{
		Ticker:     ticker,
		PeriodEnd:  time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		PeriodType: "annual",
	}
}

func TestSafeDiv(t *testing.T) {
	assert.Nil(t, SafeDiv(nil, core.Float(2)))
	assert.Nil(t, SafeDiv(core.Float(2), nil))
	assert.Nil(t, SafeDiv(core.Float(2), core.Float(0)))

	got := SafeDiv(core.Float(10), core.Float(4))
	require.NotNil(t, got)
	assert.InDelta(t, 2.5, *got, 1e-12)
}

func TestPctChange(t *testing.T) {
	assert.Nil(t, PctChange(nil, core.Float(1)))
	assert.Nil(t, PctChange(core.Float(1), nil))
	assert.Nil(t, PctChange(core.Float(1), core.Float(0)))

	got := PctChange(core.Float(115), core.Float(100))
	require.NotNil(t, got)
	assert.InDelta(t, 0.15, *got, 1e-12)

	// Negative base: shrinking loss reads as positive growth.
	got = PctChange(core.Float(-50), core.Float(-100))
	require.NotNil(t, got)
	assert.InDelta(t, 0.5, *got, 1e-12)
}

func TestSeries_At_Margins(t *testing.T) {
	rec := period("AAPL", 2023)
	rec.Revenue = core.Float(1000)
	rec.NetIncome = core.Float(150)
	rec.GrossProfit = core.Float(400)
	rec.OperatingIncome = core.Float(250)
	rec.ShareholderEquity = core.Float(500)
	rec.TotalDebt = core.Float(750)
	rec.TotalAssets = core.Float(2000)

	m := NewSeries([]core.FinancialRecord{rec}).At(0)

	assert.InDelta(t, 0.40, m["gross_margin"], 1e-12)
	assert.InDelta(t, 0.25, m["operating_margin"], 1e-12)
	assert.InDelta(t, 0.15, m["net_margin"], 1e-12)
	assert.InDelta(t, 0.30, m["roe"], 1e-12)
	assert.InDelta(t, 1.5, m["debt_to_equity"], 1e-12)
	assert.InDelta(t, 0.5, m["asset_turnover"], 1e-12)

	// First period: no prior record, so growth metrics are absent.
	_, ok := m["revenue_growth_1y"]
	assert.False(t, ok)
}

func TestSeries_At_GrowthWindows(t *testing.T) {
	var records []core.FinancialRecord
	revenues := []float64{100, 120, 150, 180, 250, 300}
	for i, rev := range revenues {
		rec := period("AAPL", 2018+i)
		rec.Revenue = core.Float(rev)
		records = append(records, rec)
	}

	s := NewSeries(records)
	m := s.At(5)

	assert.InDelta(t, (300.0-250)/250, m["revenue_growth_1y"], 1e-12)
	assert.InDelta(t, (300.0-150)/150, m["revenue_growth_3y"], 1e-12)
	assert.InDelta(t, (300.0-100)/100, m["revenue_growth_5y"], 1e-12)

	// Acceleration: growth this period minus growth last period.
	g1 := (300.0 - 250) / 250
	g0 := (250.0 - 180) / 180
	assert.InDelta(t, g1-g0, m["revenue_acceleration"], 1e-12)
}

func TestSeries_At_PEFallback(t *testing.T) {
	rec := period("AAPL", 2023)
	rec.PERatio = core.Float(22.5)
	rec.Price = core.Float(100)
	rec.EPS = core.Float(4)

	m := NewSeries([]core.FinancialRecord{rec}).At(0)
	assert.InDelta(t, 22.5, m["pe_ratio"], 1e-12, "reported PE should win")

	rec.PERatio = nil
	m = NewSeries([]core.FinancialRecord{rec}).At(0)
	assert.InDelta(t, 25.0, m["pe_ratio"], 1e-12, "fallback is price/EPS")

	rec.EPS = nil
	m = NewSeries([]core.FinancialRecord{rec}).At(0)
	_, ok := m["pe_ratio"]
	assert.False(t, ok, "no PE when both inputs are missing")
}

func TestSeries_SortsByPeriodEnd(t *testing.T) {
	a := period("AAPL", 2023)
	a.Revenue = core.Float(200)
	b := period("AAPL", 2022)
	b.Revenue = core.Float(100)

	s := NewSeries([]core.FinancialRecord{a, b})
	m := s.At(1)
	assert.InDelta(t, 1.0, m["revenue_growth_1y"], 1e-12)
}

func TestSeries_LatestOnOrBefore(t *testing.T) {
	s := NewSeries([]core.FinancialRecord{
		period("AAPL", 2021),
		period("AAPL", 2022),
		period("AAPL", 2023),
	})

	asOf, _ := core.ParseDate("2022-12-31")
	assert.Equal(t, 1, s.LatestOnOrBefore(asOf))

	asOf, _ = core.ParseDate("2030-01-01")
	assert.Equal(t, 2, s.LatestOnOrBefore(asOf))

	asOf, _ = core.ParseDate("2020-01-01")
	assert.Equal(t, -1, s.LatestOnOrBefore(asOf))
}

func TestGroupByTicker(t *testing.T) {
	records := []core.FinancialRecord{
		period("AAPL", 2022),
		period("MSFT", 2022),
		period("AAPL", 2023),
		{PeriodEnd: time.Now()}, // no ticker, dropped
	}

	groups := GroupByTicker(records)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["AAPL"].Len())
	assert.Equal(t, 1, groups["MSFT"].Len())
}
