// Package httpapi exposes the monitoring endpoints: health, Prometheus
// metrics, and read-only baseline inspection.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/snapshot"
)

// Server serves the monitoring API.
type Server struct {
	store  snapshot.BaselineStore
	router *mux.Router
	http   *http.Server
}

// New builds the monitoring server. The Prometheus gatherer backs /metrics;
// the baseline store backs /baselines/{id}.
func New(addr string, store snapshot.BaselineStore, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		store:  store,
		router: mux.NewRouter(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/baselines/{id}", s.handleBaseline).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Router exposes the handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("monitor server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"engine_version": engine.Version,
	})
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, err := s.store.Read(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("test_case", id).Msg("baseline lookup failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "baseline store unavailable"})
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("no baseline for %s", id)})
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
