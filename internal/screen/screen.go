// Package screen turns fundamental metric snapshots into screening signals.
// It sits upstream of the backtest simulator: the simulator consumes the
// signals without knowing how the scores were produced.
package screen

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/fundamentals"
)

// Screener scores a universe of tickers against a set of criteria.
type Screener struct {
	criteria Criteria
	logger   *zap.Logger
}

// NewScreener validates the criteria and returns a ready Screener.
func NewScreener(criteria Criteria, logger ...*zap.Logger) (*Screener, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Screener{criteria: criteria, logger: l}, nil
}

// ScreenTicker scores one metric snapshot into a signal.
func (s *Screener) ScreenTicker(ticker string, date time.Time, metrics map[string]float64) core.Signal {
	score, met := s.criteria.Score(metrics)
	return core.Signal{
		Ticker:       ticker,
		SignalDate:   core.Day(date),
		Score:        score,
		CriteriaMet:  met,
		PassesScreen: score >= s.criteria.MinScore,
		Metrics:      metrics,
	}
}

// ScreenUniverse scores every ticker's most recent filing as of the screen
// date. Tickers with no filing on or before asOf are skipped. Output is
// sorted by ticker for determinism.
func (s *Screener) ScreenUniverse(records []core.FinancialRecord, asOf time.Time) []core.Signal {
	groups := fundamentals.GroupByTicker(records)

	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var signals []core.Signal
	passed := 0
	for _, ticker := range tickers {
		series := groups[ticker]
		i := series.LatestOnOrBefore(asOf)
		if i < 0 {
			continue
		}
		sig := s.ScreenTicker(ticker, asOf, series.At(i))
		if sig.PassesScreen {
			passed++
		}
		signals = append(signals, sig)
	}

	s.logger.Info("screened universe",
		zap.Time("as_of", core.Day(asOf)),
		zap.Int("tickers", len(signals)),
		zap.Int("passed", passed))
	return signals
}
