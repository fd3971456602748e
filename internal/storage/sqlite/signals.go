package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/siftquant/sift/internal/core"
)

// UpsertSignals inserts or refreshes screening results. The metric
// snapshot and criteria list are stored as JSON blobs, matching how they
// are carried through the pipeline: opaquely.
func (s *Store) UpsertSignals(ctx context.Context, signals []core.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	const q = `
	INSERT INTO screening_results (ticker, date_screened, score, passes_screen, criteria_met, metrics_json)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(ticker, date_screened) DO UPDATE SET
	    score=excluded.score,
	    passes_screen=excluded.passes_screen,
	    criteria_met=excluded.criteria_met,
	    metrics_json=excluded.metrics_json`
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, sig := range signals {
			criteria, err := json.Marshal(sig.CriteriaMet)
			if err != nil {
				return err
			}
			metrics, err := json.Marshal(sig.Metrics)
			if err != nil {
				return err
			}
			passes := 0
			if sig.PassesScreen {
				passes = 1
			}
			_, err = stmt.ExecContext(ctx,
				sig.Ticker, sig.SignalDate.Format(core.DateLayout),
				sig.Score, passes, string(criteria), string(metrics))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSignals returns screening results, optionally bounded by screen date
// (inclusive; empty string means unbounded), ordered by ticker then date.
func (s *Store) LoadSignals(ctx context.Context, start, end string) ([]core.Signal, error) {
	q := `
	SELECT ticker, date_screened, score, passes_screen, criteria_met, metrics_json
	FROM screening_results`
	var (
		filters []string
		args    []any
	)
	if start != "" {
		filters = append(filters, "date_screened >= ?")
		args = append(args, start)
	}
	if end != "" {
		filters = append(filters, "date_screened <= ?")
		args = append(args, end)
	}
	for i, f := range filters {
		if i == 0 {
			q += " WHERE " + f
		} else {
			q += " AND " + f
		}
	}
	q += " ORDER BY ticker, date_screened"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []core.Signal
	for rows.Next() {
		var (
			sig          core.Signal
			date         string
			passes       int
			criteriaJSON string
			metricsJSON  string
		)
		if err := rows.Scan(&sig.Ticker, &date, &sig.Score, &passes,
			&criteriaJSON, &metricsJSON); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		if sig.SignalDate, err = core.ParseDate(date); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		sig.PassesScreen = passes != 0
		if err := json.Unmarshal([]byte(criteriaJSON), &sig.CriteriaMet); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &sig.Metrics); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
