package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/siftquant/sift/internal/core"
)

// UpsertPrices inserts or refreshes daily price rows.
func (s *Store) UpsertPrices(ctx context.Context, bars []core.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	const q = `
	INSERT INTO stock_prices (ticker, date, open, high, low, close, adj_close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(ticker, date) DO UPDATE SET
	    open=excluded.open,
	    high=excluded.high,
	    low=excluded.low,
	    close=excluded.close,
	    adj_close=excluded.adj_close,
	    volume=excluded.volume`
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, b := range bars {
			if !b.IsValid() {
				continue
			}
			_, err := stmt.ExecContext(ctx,
				b.Ticker, core.Day(b.Date).Format(core.DateLayout),
				b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPrices returns price bars for the given tickers (all tickers when the
// list is empty), ordered by ticker then date.
func (s *Store) LoadPrices(ctx context.Context, tickers []string) ([]core.PriceBar, error) {
	q := `
	SELECT ticker, date, open, high, low, close, adj_close, volume
	FROM stock_prices`
	var args []any
	if len(tickers) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
		q += " WHERE ticker IN (" + placeholders + ")"
		for _, t := range tickers {
			args = append(args, t)
		}
	}
	q += " ORDER BY ticker, date"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []core.PriceBar
	for rows.Next() {
		var (
			b    core.PriceBar
			date string
		)
		if err := rows.Scan(&b.Ticker, &date, &b.Open, &b.High, &b.Low,
			&b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		if b.Date, err = core.ParseDate(date); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
