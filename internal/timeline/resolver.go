package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/siftquant/sift/internal/core"
)

// Resolver answers forward-only price lookups: the first bar at or after a
// target date. A signal generated on day T must never execute against a bar
// dated before T, so lookups only ever move forward in time.
type Resolver struct {
	series map[string][]core.PriceBar
}

// NewResolver builds per-ticker, ascending-sorted series from unsorted bars.
// Bars with an empty ticker, zero date, or non-finite close are dropped.
// Duplicate (ticker, date) pairs resolve last-write-wins: the bar appearing
// later in the input replaces earlier ones.
func NewResolver(bars []core.PriceBar) *Resolver {
	byDay := make(map[string]map[time.Time]core.PriceBar)
	for _, b := range bars {
		if !b.IsValid() || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		day := core.Day(b.Date)
		if byDay[b.Ticker] == nil {
			byDay[b.Ticker] = make(map[time.Time]core.PriceBar)
		}
		b.Date = day
		byDay[b.Ticker][day] = b
	}

	series := make(map[string][]core.PriceBar, len(byDay))
	for ticker, days := range byDay {
		s := make([]core.PriceBar, 0, len(days))
		for _, b := range days {
			s = append(s, b)
		}
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
		series[ticker] = s
	}
	return &Resolver{series: series}
}

// Resolve returns the earliest bar with date >= target for the ticker.
// The second return is false when the ticker has no bars, or none at or
// after the target.
func (r *Resolver) Resolve(ticker string, target time.Time) (core.PriceBar, bool) {
	s := r.series[ticker]
	if len(s) == 0 {
		return core.PriceBar{}, false
	}
	day := core.Day(target)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(day) })
	if i == len(s) {
		return core.PriceBar{}, false
	}
	return s[i], true
}

// Latest returns the most recent bar for the ticker. Used for end-of-data
// exits when the hold period extends past the series.
func (r *Resolver) Latest(ticker string) (core.PriceBar, bool) {
	s := r.series[ticker]
	if len(s) == 0 {
		return core.PriceBar{}, false
	}
	return s[len(s)-1], true
}

// Tickers returns the tickers with at least one bar, sorted.
func (r *Resolver) Tickers() []string {
	out := make([]string, 0, len(r.series))
	for t := range r.series {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bars held for a ticker.
func (r *Resolver) Len(ticker string) int {
	return len(r.series[ticker])
}
