package sqlite

import (
	"context"
	"database/sql"

	"github.com/siftquant/sift/internal/core"
)

// UpsertCompanies inserts or refreshes company reference rows.
func (s *Store) UpsertCompanies(ctx context.Context, companies []core.Company) error {
	if len(companies) == 0 {
		return nil
	}
	const q = `
	INSERT INTO companies (ticker, name, sector, industry)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(ticker) DO UPDATE SET
	    name=excluded.name,
	    sector=excluded.sector,
	    industry=excluded.industry,
	    updated_at=CURRENT_TIMESTAMP`
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range companies {
			if _, err := stmt.ExecContext(ctx, c.Ticker, c.Name, c.Sector, c.Industry); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertFinancials inserts or refreshes one reporting period per row.
func (s *Store) UpsertFinancials(ctx context.Context, records []core.FinancialRecord) error {
	if len(records) == 0 {
		return nil
	}
	const q = `
	INSERT INTO financial_metrics (
	    ticker, period_end, period_type, currency,
	    revenue, net_income, operating_cash_flow, free_cash_flow,
	    total_assets, total_debt, shareholder_equity, gross_profit,
	    operating_income, eps, current_ratio, pe_ratio, market_cap, price
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(ticker, period_end, period_type) DO UPDATE SET
	    currency=excluded.currency,
	    revenue=excluded.revenue,
	    net_income=excluded.net_income,
	    operating_cash_flow=excluded.operating_cash_flow,
	    free_cash_flow=excluded.free_cash_flow,
	    total_assets=excluded.total_assets,
	    total_debt=excluded.total_debt,
	    shareholder_equity=excluded.shareholder_equity,
	    gross_profit=excluded.gross_profit,
	    operating_income=excluded.operating_income,
	    eps=excluded.eps,
	    current_ratio=excluded.current_ratio,
	    pe_ratio=excluded.pe_ratio,
	    market_cap=excluded.market_cap,
	    price=excluded.price`
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range records {
			periodType := r.PeriodType
			if periodType == "" {
				periodType = "annual"
			}
			_, err := stmt.ExecContext(ctx,
				r.Ticker, r.PeriodEnd.Format(core.DateLayout), periodType, r.Currency,
				nullFloat(r.Revenue), nullFloat(r.NetIncome),
				nullFloat(r.OperatingCashFlow), nullFloat(r.FreeCashFlow),
				nullFloat(r.TotalAssets), nullFloat(r.TotalDebt),
				nullFloat(r.ShareholderEquity), nullFloat(r.GrossProfit),
				nullFloat(r.OperatingIncome), nullFloat(r.EPS),
				nullFloat(r.CurrentRatio), nullFloat(r.PERatio),
				nullFloat(r.MarketCap), nullFloat(r.Price))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadFinancials returns all financial records with period end on or before
// asOf, ordered by ticker then period end.
func (s *Store) LoadFinancials(ctx context.Context, asOf string) ([]core.FinancialRecord, error) {
	const q = `
	SELECT ticker, period_end, period_type, currency,
	       revenue, net_income, operating_cash_flow, free_cash_flow,
	       total_assets, total_debt, shareholder_equity, gross_profit,
	       operating_income, eps, current_ratio, pe_ratio, market_cap, price
	FROM financial_metrics
	WHERE period_end <= ?
	ORDER BY ticker, period_end`
	rows, err := s.db.QueryContext(ctx, q, asOf)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var out []core.FinancialRecord
	for rows.Next() {
		var (
			r         core.FinancialRecord
			periodEnd string
			vals      [14]sql.NullFloat64
		)
		err := rows.Scan(&r.Ticker, &periodEnd, &r.PeriodType, &r.Currency,
			&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6],
			&vals[7], &vals[8], &vals[9], &vals[10], &vals[11], &vals[12], &vals[13])
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		if r.PeriodEnd, err = core.ParseDate(periodEnd); err != nil {
			return nil, core.WrapError(core.ErrParseFailed, err)
		}
		r.Revenue = scanFloat(vals[0])
		r.NetIncome = scanFloat(vals[1])
		r.OperatingCashFlow = scanFloat(vals[2])
		r.FreeCashFlow = scanFloat(vals[3])
		r.TotalAssets = scanFloat(vals[4])
		r.TotalDebt = scanFloat(vals[5])
		r.ShareholderEquity = scanFloat(vals[6])
		r.GrossProfit = scanFloat(vals[7])
		r.OperatingIncome = scanFloat(vals[8])
		r.EPS = scanFloat(vals[9])
		r.CurrentRatio = scanFloat(vals[10])
		r.PERatio = scanFloat(vals[11])
		r.MarketCap = scanFloat(vals[12])
		r.Price = scanFloat(vals[13])
		out = append(out, r)
	}
	return out, rows.Err()
}
