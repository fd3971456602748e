package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/core"
)

// Run identifies one persisted backtest run.
type Run struct {
	ID        string
	Config    backtest.Config
	NumTrades int
	Summary   backtest.Summary
	CreatedAt time.Time
}

// SaveRun persists a run header with its summary and all of its trades in
// one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, trades []backtest.Trade) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	const runQ = `
	INSERT INTO backtest_runs (run_id, hold_days, transaction_cost_bps, filing_delay_days, num_trades, summary_json)
	VALUES (?, ?, ?, ?, ?, ?)`
	const tradeQ = `
	INSERT INTO backtest_results (
	    run_id, ticker, signal_date, buy_date, sell_date,
	    actual_hold_days, buy_price, sell_price, net_return_pct, exit_reason, metrics_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, ticker, buy_date, sell_date) DO UPDATE SET
	    net_return_pct=excluded.net_return_pct,
	    exit_reason=excluded.exit_reason,
	    metrics_json=excluded.metrics_json`

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, runQ, run.ID,
			run.Config.HoldDays, run.Config.TransactionCostBps,
			run.Config.FilingDelayDays, len(trades), string(summaryJSON))
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, tradeQ)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range trades {
			metrics, err := json.Marshal(t.Metrics)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, run.ID, t.Ticker,
				t.SignalDate.Format(core.DateLayout),
				t.BuyDate.Format(core.DateLayout),
				t.SellDate.Format(core.DateLayout),
				t.ActualHoldDays, t.BuyPrice, t.SellPrice,
				t.NetReturnPct, string(t.ExitReason), string(metrics))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestRun returns the most recently created run, or ErrNoData when the
// runs table is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	const q = `
	SELECT run_id, hold_days, transaction_cost_bps, filing_delay_days, num_trades, summary_json, created_at
	FROM backtest_runs
	ORDER BY created_at DESC, run_id DESC
	LIMIT 1`
	return s.scanRun(s.db.QueryRowContext(ctx, q))
}

// GetRun returns one run by ID, or ErrNoData when it does not exist.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	const q = `
	SELECT run_id, hold_days, transaction_cost_bps, filing_delay_days, num_trades, summary_json, created_at
	FROM backtest_runs
	WHERE run_id = ?`
	return s.scanRun(s.db.QueryRowContext(ctx, q, runID))
}

func (s *Store) scanRun(row *sql.Row) (Run, error) {
	var (
		run         Run
		summaryJSON string
		createdAt   string
	)
	err := row.Scan(&run.ID,
		&run.Config.HoldDays, &run.Config.TransactionCostBps,
		&run.Config.FilingDelayDays, &run.NumTrades, &summaryJSON, &createdAt)
	if err == sql.ErrNoRows {
		return Run{}, core.ErrNoData
	}
	if err != nil {
		return Run{}, core.WrapError(core.ErrStoreFailed, err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return Run{}, core.WrapError(core.ErrParseFailed, err)
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}

// LoadTrades returns the trades of a run ordered by buy date, ticker.
func (s *Store) LoadTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	const q = `
	SELECT ticker, signal_date, buy_date, sell_date,
	       actual_hold_days, buy_price, sell_price, net_return_pct, exit_reason, metrics_json
	FROM backtest_results
	WHERE run_id = ?
	ORDER BY buy_date, ticker`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var (
			t                             backtest.Trade
			signalDate, buyDate, sellDate string
			exitReason, metricsJSON       string
		)
		if err := rows.Scan(&t.Ticker, &signalDate, &buyDate, &sellDate,
			&t.ActualHoldDays, &t.BuyPrice, &t.SellPrice, &t.NetReturnPct,
			&exitReason, &metricsJSON); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		if t.SignalDate, err = core.ParseDate(signalDate); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		if t.BuyDate, err = core.ParseDate(buyDate); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		if t.SellDate, err = core.ParseDate(sellDate); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		t.ExitReason = backtest.ExitReason(exitReason)
		if metricsJSON != "" {
			if err := json.Unmarshal([]byte(metricsJSON), &t.Metrics); err != nil {
				return nil, core.WrapError(core.ErrParseFailed, err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
