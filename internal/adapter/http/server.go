package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/coastal-threat-engine/internal/alert"
	"github.com/couchcryptid/coastal-threat-engine/internal/classifier"
	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AlertService exposes the active-alert set and operator deactivation.
type AlertService interface {
	Active() []domain.Alert
	Deactivate(ctx context.Context, id string) (domain.Alert, error)
}

// Assessor scores ad-hoc feature vectors with the flood model.
type Assessor interface {
	Assess(features domain.FeatureVector) domain.RiskAssessment
}

// Retrainer kicks off a model retraining run. Implementations return
// classifier.ErrTrainingInProgress when one is already active.
type Retrainer interface {
	Retrain(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and operator HTTP endpoints.
type Server struct {
	httpServer *http.Server
	alerts     AlertService
	assessor   Assessor
	retrainer  Retrainer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, alert, and model routes.
func NewServer(addr string, ready ReadinessChecker, alerts AlertService, assessor Assessor, retrainer Retrainer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		alerts:    alerts,
		assessor:  assessor,
		retrainer: retrainer,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /alerts", s.handleListAlerts)
	mux.HandleFunc("DELETE /alerts/{id}", s.handleDeactivateAlert)
	mux.HandleFunc("POST /assess", s.handleAssess)
	mux.HandleFunc("POST /retrain", s.handleRetrain)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	active := s.alerts.Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": active,
		"count":  len(active),
	})
}

func (s *Server) handleDeactivateAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	retired, err := s.alerts.Deactivate(r.Context(), id)
	if errors.Is(err, alert.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found", "id": id})
		return
	}
	if err != nil {
		s.logger.Error("deactivate alert failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "deactivation failed"})
		return
	}
	writeJSON(w, http.StatusOK, retired)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var reading domain.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, s.assessor.Assess(reading.Features()))
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	err := s.retrainer.Retrain(r.Context())
	if errors.Is(err, classifier.ErrTrainingInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "training already in progress"})
		return
	}
	if err != nil {
		s.logger.Error("retrain failed to start", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "training started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
