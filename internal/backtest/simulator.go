package backtest

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/timeline"
)

// phase is a ticker's position in its lifecycle.
type phase int

const (
	phaseIdle phase = iota
	phaseHolding
)

// tickerState is the per-ticker state machine: Idle until a signal opens a
// position, Holding until the simulated sell date. Signals arriving while
// Holding are discarded, which enforces one open position per ticker.
type tickerState struct {
	phase        phase
	holdingUntil time.Time
}

// Simulator converts screening signals into non-overlapping trades against
// a resolver's price series. A Simulator is safe to reuse; all mutable
// state is scoped to a single Run call.
type Simulator struct {
	resolver *timeline.Resolver
	cfg      Config
	logger   *zap.Logger
}

// NewSimulator validates the config and returns a ready Simulator.
func NewSimulator(resolver *timeline.Resolver, cfg Config, logger ...*zap.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Simulator{resolver: resolver, cfg: cfg, logger: l}, nil
}

// Run walks the signals and emits completed trades. Missing price data,
// failed screens, and overlapping signals produce no trade and no error;
// empty input yields an empty slice.
func (s *Simulator) Run(signals []core.Signal) []Trade {
	grouped, tickers := groupSignals(signals)

	var trades []Trade
	states := make(map[string]tickerState, len(tickers))

	for _, ticker := range tickers {
		st := states[ticker]
		for _, sig := range grouped[ticker] {
			if !sig.PassesScreen {
				continue
			}
			signalDate := core.Day(sig.SignalDate)

			if st.phase == phaseHolding {
				if signalDate.Before(st.holdingUntil) {
					// Overlap guard: one open position per ticker.
					continue
				}
				st.phase = phaseIdle
			}

			// The filing delay closes the second look-ahead channel: the
			// triggering information is not actionable before this date.
			executionTarget := signalDate.AddDate(0, 0, s.cfg.FilingDelayDays)
			buy, ok := s.resolver.Resolve(ticker, executionTarget)
			if !ok {
				continue
			}
			if buy.Close == 0 {
				// Return would be undefined; treat as missing data.
				s.logger.Debug("skipping zero buy price",
					zap.String("ticker", ticker),
					zap.Time("buy_date", buy.Date))
				continue
			}

			sellTarget := buy.Date.AddDate(0, 0, s.cfg.HoldDays)
			sell, ok := s.resolver.Resolve(ticker, sellTarget)
			reason := ExitTime
			if !ok {
				// Always succeeds: buy came from the same series.
				sell, _ = s.resolver.Latest(ticker)
				reason = ExitEndOfData
			}

			gross := (sell.Close - buy.Close) / buy.Close
			roundTripCost := 2 * s.cfg.TransactionCostBps / 10000

			trades = append(trades, Trade{
				Ticker:         ticker,
				SignalDate:     signalDate,
				BuyDate:        buy.Date,
				SellDate:       sell.Date,
				ActualHoldDays: core.DaysBetween(buy.Date, sell.Date),
				BuyPrice:       buy.Close,
				SellPrice:      sell.Close,
				NetReturnPct:   (gross - roundTripCost) * 100,
				ExitReason:     reason,
				Metrics:        sig.Metrics,
			})
			st = tickerState{phase: phaseHolding, holdingUntil: sell.Date}
		}
		states[ticker] = st
	}

	s.logger.Debug("simulation complete",
		zap.Int("signals", len(signals)),
		zap.Int("trades", len(trades)))
	return trades
}

// groupSignals is the named preprocessing sort the overlap guard depends
// on: signals grouped by ticker, ascending by signal date within a ticker.
// Ticker iteration order is sorted for deterministic output; cross-ticker
// order has no effect on results.
func groupSignals(signals []core.Signal) (map[string][]core.Signal, []string) {
	grouped := make(map[string][]core.Signal)
	for _, sig := range signals {
		if sig.Ticker == "" {
			continue
		}
		grouped[sig.Ticker] = append(grouped[sig.Ticker], sig)
	}

	tickers := make([]string, 0, len(grouped))
	for ticker, sigs := range grouped {
		sort.SliceStable(sigs, func(i, j int) bool {
			return sigs[i].SignalDate.Before(sigs[j].SignalDate)
		})
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return grouped, tickers
}
