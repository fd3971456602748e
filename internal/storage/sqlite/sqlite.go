// Package sqlite persists companies, fundamentals, prices, screening
// signals, and backtest results in a single SQLite database. It is plain
// I/O plumbing around the core pipeline; none of the temporal logic lives
// here.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/siftquant/sift/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS companies (
    ticker TEXT PRIMARY KEY,
    name TEXT,
    sector TEXT,
    industry TEXT,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS financial_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    period_end TEXT NOT NULL,
    period_type TEXT NOT NULL,
    currency TEXT,
    revenue REAL,
    net_income REAL,
    operating_cash_flow REAL,
    free_cash_flow REAL,
    total_assets REAL,
    total_debt REAL,
    shareholder_equity REAL,
    gross_profit REAL,
    operating_income REAL,
    eps REAL,
    current_ratio REAL,
    pe_ratio REAL,
    market_cap REAL,
    price REAL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(ticker, period_end, period_type)
);

CREATE TABLE IF NOT EXISTS stock_prices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    open REAL,
    high REAL,
    low REAL,
    close REAL,
    adj_close REAL,
    volume REAL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(ticker, date)
);

CREATE TABLE IF NOT EXISTS screening_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    date_screened TEXT NOT NULL,
    score INTEGER NOT NULL,
    passes_screen INTEGER NOT NULL,
    criteria_met TEXT NOT NULL,
    metrics_json TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(ticker, date_screened)
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id TEXT PRIMARY KEY,
    hold_days INTEGER NOT NULL,
    transaction_cost_bps REAL NOT NULL,
    filing_delay_days INTEGER NOT NULL,
    num_trades INTEGER NOT NULL,
    summary_json TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS backtest_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    ticker TEXT NOT NULL,
    signal_date TEXT NOT NULL,
    buy_date TEXT NOT NULL,
    sell_date TEXT NOT NULL,
    actual_hold_days INTEGER NOT NULL,
    buy_price REAL NOT NULL,
    sell_price REAL NOT NULL,
    net_return_pct REAL NOT NULL,
    exit_reason TEXT NOT NULL,
    metrics_json TEXT,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(run_id, ticker, buy_date, sell_date)
);
`

// Store is a SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return core.WrapError(core.ErrStoreFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// nullFloat converts a nullable pointer to its driver representation.
func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// scanFloat converts a scanned nullable column back to a pointer.
func scanFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
