package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/storage/sqlite"
)

func testServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "sift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, store, metrics.NewRegistry(), zap.NewNop())
	return srv, store
}

func seedBacktestData(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	sigDate, _ := core.ParseDate("2023-01-01")
	require.NoError(t, store.UpsertSignals(ctx, []core.Signal{{
		Ticker:       "AAPL",
		SignalDate:   sigDate,
		Score:        6,
		PassesScreen: true,
		Metrics:      map[string]float64{"pe_ratio": 20},
	}}))

	var bars []core.PriceBar
	for _, ds := range []string{"2023-02-15", "2023-08-14"} {
		d, _ := core.ParseDate(ds)
		bars = append(bars, core.PriceBar{Ticker: "AAPL", Date: d, Close: 100})
	}
	bars[1].Close = 120
	require.NoError(t, store.UpsertPrices(ctx, bars))
}

func TestServer_Health(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServer_Screenings(t *testing.T) {
	srv, store := testServer(t)
	seedBacktestData(t, store)

	req := httptest.NewRequest("GET", "/api/v1/screenings", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []core.Signal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "AAPL", resp.Data[0].Ticker)
	assert.True(t, resp.Data[0].PassesScreen)
}

func TestServer_Screenings_DateFilter(t *testing.T) {
	srv, store := testServer(t)
	seedBacktestData(t, store)

	req := httptest.NewRequest("GET", "/api/v1/screenings?start=2024-01-01", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []core.Signal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestServer_Backtest(t *testing.T) {
	srv, store := testServer(t)
	seedBacktestData(t, store)

	body := strings.NewReader(`{"hold_days": 180, "filing_delay_days": 45}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			RunID     string         `json:"run_id"`
			NumTrades int            `json:"num_trades"`
			Summary   map[string]any `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, 1, resp.Data.NumTrades)
	assert.InDelta(t, 20.0, resp.Data.Summary["avg_return_pct"], 1e-9)

	// The run is persisted and retrievable through the trades endpoint.
	req = httptest.NewRequest("GET", "/api/v1/trades", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.Data.RunID)
	assert.Contains(t, w.Body.String(), `"net_return_pct":20`)
}

func TestServer_Backtest_NoSignals(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/v1/backtest", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_DATA")
}

func TestServer_Backtest_InvalidConfig(t *testing.T) {
	srv, store := testServer(t)
	seedBacktestData(t, store)

	req := httptest.NewRequest("POST", "/api/v1/backtest", strings.NewReader(`{"hold_days": -1}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIG_INVALID")
}

func TestServer_Trades_NoRuns(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/v1/trades", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_APIKey(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "sift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	srv := NewServer(Config{APIKey: "secret"}, store, metrics.NewRegistry(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/screenings", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/screenings", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open without a key.
	req = httptest.NewRequest("GET", "/healthz", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
