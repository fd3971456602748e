// Package api serves screening results and backtest runs over HTTP, and
// exposes the Prometheus metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/siftquant/sift/internal/api/middleware"
	"github.com/siftquant/sift/internal/api/response"
	"github.com/siftquant/sift/internal/backtest"
	"github.com/siftquant/sift/internal/core"
	"github.com/siftquant/sift/internal/metrics"
	"github.com/siftquant/sift/internal/storage/sqlite"
	"github.com/siftquant/sift/internal/timeline"
)

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	store      *sqlite.Store
	registry   *metrics.Registry
	logger     *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Host   string
	Port   int
	APIKey string // empty disables authentication
}

// NewServer wires routes and middleware around the store.
func NewServer(cfg Config, store *sqlite.Store, registry *metrics.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		store:    store,
		registry: registry,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	auth := middleware.APIKeyAuth(cfg.APIKey)
	mux.Handle("GET /api/v1/screenings", auth(http.HandlerFunc(s.handleScreenings)))
	mux.Handle("GET /api/v1/trades", auth(http.HandlerFunc(s.handleTrades)))
	mux.Handle("POST /api/v1/backtest", auth(http.HandlerFunc(s.handleBacktest)))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(registry)(handler)
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleScreenings(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	signals, err := s.store.LoadSignals(r.Context(), start, end)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, signals)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		latest, err := s.store.LatestRun(r.Context())
		if errors.Is(err, core.ErrNoData) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, err)
			return
		}
		runID = latest.ID
	}

	trades, err := s.store.LoadTrades(r.Context(), runID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"trades": trades,
	})
}

// backtestRequest is the POST /api/v1/backtest body. Omitted simulation
// parameters fall back to the defaults.
type backtestRequest struct {
	HoldDays           *int     `json:"hold_days"`
	TransactionCostBps *float64 `json:"transaction_cost_bps"`
	FilingDelayDays    *int     `json:"filing_delay_days"`
	Start              string   `json:"start"`
	End                string   `json:"end"`
}

func (req backtestRequest) config() backtest.Config {
	cfg := backtest.DefaultConfig()
	if req.HoldDays != nil {
		cfg.HoldDays = *req.HoldDays
	}
	if req.TransactionCostBps != nil {
		cfg.TransactionCostBps = *req.TransactionCostBps
	}
	if req.FilingDelayDays != nil {
		cfg.FilingDelayDays = *req.FilingDelayDays
	}
	return cfg
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrParseFailed, err))
		return
	}
	cfg := req.config()

	run, trades, err := s.runBacktest(r.Context(), cfg, req.Start, req.End)
	if err != nil {
		s.registry.RecordBacktest("error", 0, time.Since(start).Seconds())
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrConfigInvalid) {
			status = http.StatusBadRequest
		} else if errors.Is(err, core.ErrNoData) {
			status = http.StatusNotFound
		}
		response.Error(w, status, err)
		return
	}

	s.registry.RecordBacktest("ok", len(trades), time.Since(start).Seconds())
	response.JSON(w, http.StatusOK, map[string]any{
		"run_id":     run.ID,
		"config":     cfg,
		"num_trades": len(trades),
		"summary":    run.Summary.Map(),
	})
}

func (s *Server) runBacktest(ctx context.Context, cfg backtest.Config, start, end string) (sqlite.Run, []backtest.Trade, error) {
	signals, err := s.store.LoadSignals(ctx, start, end)
	if err != nil {
		return sqlite.Run{}, nil, err
	}
	if len(signals) == 0 {
		return sqlite.Run{}, nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no screening signals between %q and %q", start, end))
	}

	tickers := make([]string, 0, len(signals))
	seen := make(map[string]bool)
	for _, sig := range signals {
		if !seen[sig.Ticker] {
			seen[sig.Ticker] = true
			tickers = append(tickers, sig.Ticker)
		}
	}

	bars, err := s.store.LoadPrices(ctx, tickers)
	if err != nil {
		return sqlite.Run{}, nil, err
	}

	sim, err := backtest.NewSimulator(timeline.NewResolver(bars), cfg, s.logger)
	if err != nil {
		return sqlite.Run{}, nil, err
	}
	trades := sim.Run(signals)

	run := sqlite.Run{
		ID:      uuid.NewString(),
		Config:  cfg,
		Summary: backtest.Summarize(trades),
	}
	if err := s.store.SaveRun(ctx, run, trades); err != nil {
		return sqlite.Run{}, nil, err
	}
	return run, trades, nil
}
