// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/aggregator"
	"github.com/mvillard/patrimoine/internal/api/response"
	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/history"
	"github.com/mvillard/patrimoine/internal/metrics"
	"github.com/mvillard/patrimoine/internal/predictor"
	"github.com/mvillard/patrimoine/internal/storage/asset"
)

const defaultHistoryDays = 30

// Server is the HTTP API for price aggregation.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	service    *aggregator.Service
	assets     asset.Repository
	history    *history.Recorder
	predictor  *predictor.Predictor
	logger     *zap.Logger
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// NewServer creates the HTTP server. The metrics registry and the
// predictor are optional; their routes are registered only when
// present.
func NewServer(
	cfg Config,
	service *aggregator.Service,
	assets asset.Repository,
	recorder *history.Recorder,
	pred *predictor.Predictor,
	reg *metrics.Registry,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	var handler http.Handler = metrics.LoggingMiddleware(logger)(mux)
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(handler)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mux:       mux,
		service:   service,
		assets:    assets,
		history:   recorder,
		predictor: pred,
		logger:    logger,
	}

	s.setupRoutes(cfg.MetricsPath, reg)
	return s
}

func (s *Server) setupRoutes(metricsPath string, reg *metrics.Registry) {
	s.mux.HandleFunc("POST /api/prices/update/{assetId}", s.handleUpdateOne)
	s.mux.HandleFunc("POST /api/prices/update-bulk", s.handleUpdateBulk)
	s.mux.HandleFunc("POST /api/prices/update-all", s.handleUpdateAll)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/history/{assetId}", s.handleHistory)
	s.mux.HandleFunc("GET /api/statistics/{assetId}", s.handleStatistics)
	s.mux.HandleFunc("GET /api/predictions/{assetId}", s.handlePrediction)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if reg != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		s.mux.Handle("GET "+metricsPath, promhttp.HandlerFor(reg.Registry, promhttp.HandlerOpts{}))
	}
}

// Handler exposes the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
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

func (s *Server) handleUpdateOne(w http.ResponseWriter, r *http.Request) {
	assetID := r.PathValue("assetId")

	a, err := s.service.UpdateOne(r.Context(), assetID)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, toAssetDTO(*a))
}

type bulkUpdateRequest struct {
	AssetIDs []string `json:"assetIds"`
}

func (s *Server) handleUpdateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid request body: %w", err)))
		return
	}
	if len(req.AssetIDs) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, errors.New("assetIds is required")))
		return
	}

	report, err := s.service.UpdateMany(r.Context(), req.AssetIDs)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, toBatchReportDTO(*report))
}

func (s *Server) handleUpdateAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.UpdateAll(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, toBatchReportDTO(*report))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, errors.New("query parameter is required")))
		return
	}
	typeFilter := core.AssetType(r.URL.Query().Get("type"))

	results, err := s.service.Search(r.Context(), query, typeFilter)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, toSearchDTOs(results))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	assetID := r.PathValue("assetId")
	days := queryDays(r, defaultHistoryDays)

	records, err := s.history.History(r.Context(), assetID, days)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, toRecordDTOs(records))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	assetID := r.PathValue("assetId")
	days := queryDays(r, defaultHistoryDays)

	stats, err := s.history.Statistics(r.Context(), assetID, days)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, statisticsDTO{
		Current:       stats.Current,
		Min:           stats.Min,
		Max:           stats.Max,
		Avg:           stats.Avg,
		ChangePercent: stats.ChangePercent,
	})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrConfigMissing, errors.New("predictions are not configured")))
		return
	}
	assetID := r.PathValue("assetId")

	a, err := s.assets.GetByID(r.Context(), assetID)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	pred, err := s.predictor.Predict(r.Context(), *a)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, predictionDTO{
		AssetID:        pred.AssetID,
		PredictedPrice: pred.PredictedPrice,
		Confidence:     pred.Confidence,
		Timeframe:      pred.Timeframe,
		Algorithm:      pred.Algorithm,
		CreatedAt:      pred.CreatedAt,
		ExpiresAt:      pred.ExpiresAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func queryDays(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return fallback
	}
	return days
}
