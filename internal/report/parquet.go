package report

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"github.com/siftquant/sift/internal/backtest"
)

// TradeRow is the Parquet schema for exported trades. Dates are stored as
// millisecond timestamps, the signal metrics snapshot is not carried.
type TradeRow struct {
	Ticker         string  `parquet:"ticker"`
	SignalDate     int64   `parquet:"signal_date,timestamp(millisecond)"`
	BuyDate        int64   `parquet:"buy_date,timestamp(millisecond)"`
	SellDate       int64   `parquet:"sell_date,timestamp(millisecond)"`
	ActualHoldDays int32   `parquet:"actual_hold_days"`
	BuyPrice       float64 `parquet:"buy_price"`
	SellPrice      float64 `parquet:"sell_price"`
	NetReturnPct   float64 `parquet:"net_return_pct"`
	ExitReason     string  `parquet:"exit_reason"`
}

func toTradeRows(trades []backtest.Trade) []TradeRow {
	rows := make([]TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = TradeRow{
			Ticker:         t.Ticker,
			SignalDate:     t.SignalDate.UnixMilli(),
			BuyDate:        t.BuyDate.UnixMilli(),
			SellDate:       t.SellDate.UnixMilli(),
			ActualHoldDays: int32(t.ActualHoldDays),
			BuyPrice:       t.BuyPrice,
			SellPrice:      t.SellPrice,
			NetReturnPct:   t.NetReturnPct,
			ExitReason:     string(t.ExitReason),
		}
	}
	return rows
}

// RenderTradesParquet serializes the trade log as a Parquet file in memory.
func RenderTradesParquet(trades []backtest.Trade) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, toTradeRows(trades)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTradesParquet writes the trade log as a Parquet file on disk.
func WriteTradesParquet(path string, trades []backtest.Trade) error {
	return parquet.WriteFile(path, toTradeRows(trades))
}
