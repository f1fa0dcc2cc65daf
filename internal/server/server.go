// Package server serves the application's liveness routes: a banner at the
// root and a health check that pings the configured data store.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/apiscaffold/internal/config"
	"github.com/wolfeidau/apiscaffold/internal/datastore"
	apphttp "github.com/wolfeidau/apiscaffold/internal/http"
	"github.com/wolfeidau/apiscaffold/internal/telemetry"
)

const healthTimeout = 3 * time.Second

// Server holds the handlers' dependencies.
type Server struct {
	settings *config.Settings
	store    datastore.Prober
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// New creates a Server. store may be nil, in which case health reports the
// data store as unconfigured but healthy.
func New(settings *config.Settings, store datastore.Prober, logger zerolog.Logger) *Server {
	return &Server{
		settings: settings,
		store:    store,
		logger:   logger,
		metrics:  telemetry.GetMetrics(),
	}
}

// WithMetrics replaces the global metric instruments.
func (s *Server) WithMetrics(m *telemetry.Metrics) *Server {
	s.metrics = m
	return s
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("GET /health", s.health)
	return apphttp.RequestLogger(s.logger)(mux)
}

type rootResponse struct {
	Message string `json:"message"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, rootResponse{Message: "Service is up, hurray!"})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "healthy",
		Database: string(s.settings.DatabaseType),
	}

	if s.store != nil {
		resp.Backend = s.store.Name()

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		started := time.Now()
		err := s.store.Ping(ctx)
		s.metrics.RecordHealthCheck(r.Context(), resp.Database, resp.Backend, err == nil, time.Since(started))

		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			writeJSON(w, r, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, r, http.StatusOK, resp)
		return
	}

	s.metrics.RecordHealthCheck(r.Context(), resp.Database, "", true, 0)
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
