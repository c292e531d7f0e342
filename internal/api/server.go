package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/x402nexus/relay/internal/infra/store"
	"github.com/x402nexus/relay/internal/orchestrator"
)

// Server exposes the thin HTTP surface: payment submission and status,
// dashboard metrics and health probes. Validation and JSON shaping only;
// all behavior lives in the orchestrator and the store.
type Server struct {
	orch   *orchestrator.Orchestrator
	store  store.Store
	server *http.Server
}

// NewServer creates the HTTP server.
func NewServer(orch *orchestrator.Orchestrator, st store.Store, port int) *Server {
	r := mux.NewRouter()
	s := &Server{
		orch:  orch,
		store: st,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}

	r.HandleFunc("/api/payments", s.handleCreatePayment).Methods(http.MethodPost)
	r.HandleFunc("/api/payments/{id}", s.handleGetPayment).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", s.handleMetricsSummary).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
