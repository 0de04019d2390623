package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

// HealthFunc reports the current transport health; ok is false when the
// transport does not track it.
type HealthFunc func() (status transport.HealthStatus, ok bool)

// Server provides HTTP endpoints for health and metrics scraping.
type Server struct {
	health HealthFunc
	server *http.Server
}

// NewServer creates a new metrics server listening on port.
func NewServer(health HealthFunc, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		health: health,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	var detail *transport.HealthStatus

	if s.health != nil {
		if h, ok := s.health(); ok {
			detail = &h
			if !h.Available {
				status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"transport": detail,
	})
}
