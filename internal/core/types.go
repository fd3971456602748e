package core

import "time"

// DateLayout is the canonical calendar-date format used across the system.
const DateLayout = "2006-01-02"

// PriceBar represents one daily price row for a ticker. Only Close drives
// the simulation; the remaining fields pass through to persistence.
type PriceBar struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// IsValid checks if the bar has the fields required by the resolver.
func (b PriceBar) IsValid() bool {
	return b.Ticker != "" && !b.Date.IsZero()
}

// Company holds static reference data for a ticker.
type Company struct {
	Ticker   string
	Name     string
	Sector   string
	Industry string
}

// FinancialRecord is one reporting period of raw fundamentals for a ticker.
// Pointer fields distinguish "not reported" from zero.
type FinancialRecord struct {
	Ticker            string
	PeriodEnd         time.Time
	PeriodType        string // "annual" or "quarterly"
	Currency          string
	Revenue           *float64
	NetIncome         *float64
	OperatingCashFlow *float64
	FreeCashFlow      *float64
	TotalAssets       *float64
	TotalDebt         *float64
	ShareholderEquity *float64
	GrossProfit       *float64
	OperatingIncome   *float64
	EPS               *float64
	CurrentRatio      *float64
	PERatio           *float64
	MarketCap         *float64
	Price             *float64
}

// Signal is one screening decision for a ticker on a date. The Metrics
// snapshot is opaque to the simulator and carried through for reporting.
type Signal struct {
	Ticker       string             `json:"ticker"`
	SignalDate   time.Time          `json:"signal_date"`
	Score        int                `json:"score"`
	CriteriaMet  []string           `json:"criteria_met"`
	PassesScreen bool               `json:"passes_screen"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Day truncates a timestamp to a UTC calendar date. All date arithmetic in
// the system happens on Day-normalized values so day counts are exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) into a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Float returns a pointer to v. Convenience for nullable numeric fields.
func Float(v float64) *float64 {
	return &v
}
