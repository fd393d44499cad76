// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corourke/gigmanager/pkg/logger"
	"github.com/corourke/gigmanager/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires HTTP routes for the conflict API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	conflictsHandler *ConflictsHandler

	jwtSecret string
	logger    logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.conflictsHandler = NewConflictsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	auth := func(next http.HandlerFunc) http.HandlerFunc { return AuthMiddleware(s.jwtSecret, next) }

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /conflicts/check", MetricsMiddleware(auth(s.conflictsHandler.HandleCheck), "conflicts_check"))
	mux.HandleFunc("POST /conflicts/batch", MetricsMiddleware(auth(s.conflictsHandler.HandleBatch), "conflicts_batch"))
	mux.HandleFunc("GET /conflicts", MetricsMiddleware(auth(s.conflictsHandler.HandleRange), "conflicts_range"))
	mux.HandleFunc("GET /gigs/{id}/conflicts", MetricsMiddleware(auth(s.conflictsHandler.HandleGig), "gig_conflicts"))
}

// Handler returns mux wrapped in the request-scoped middleware.
func Handler(mux *http.ServeMux) http.Handler {
	return RequestIDMiddleware(mux)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status and writes the error body.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
