package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/healthz"

	"github.com/SamuelLess/carakube/internal/snapshot"
	"github.com/SamuelLess/carakube/internal/types"
)

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string
}

// Server exposes the published snapshot over HTTP.
type Server struct {
	config    ServerConfig
	logger    *zap.Logger
	publisher *snapshot.Publisher
	scheduler ScanTrigger
	server    *http.Server
}

// NewServer creates the API server.
func NewServer(config ServerConfig, p *snapshot.Publisher, s ScanTrigger, logger *zap.Logger) *Server {
	return &Server{
		config:    config,
		logger:    logger.Named("server"),
		publisher: p,
		scheduler: s,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/graph", NewGraphHandler(s.publisher, s.logger))
	mux.Handle("/api/summary", NewSummaryHandler(s.publisher, s.logger))
	mux.Handle("/api/scan", NewScanHandler(s.scheduler, s.logger))
	mux.Handle("/metrics", promhttp.Handler())

	health := &healthz.Handler{Checks: map[string]healthz.Checker{
		"ping": healthz.Ping,
	}}
	ready := &healthz.Handler{Checks: map[string]healthz.Checker{
		"snapshot": s.snapshotReady,
	}}
	mux.Handle("/healthz", http.StripPrefix("/healthz", health))
	mux.Handle("/healthz/", http.StripPrefix("/healthz", health))
	mux.Handle("/readyz", http.StripPrefix("/readyz", ready))
	mux.Handle("/readyz/", http.StripPrefix("/readyz", ready))
	return mux
}

// snapshotReady reports ready once a scan outcome has been published.
func (s *Server) snapshotReady(_ *http.Request) error {
	status := s.publisher.Latest().Status
	if status == types.StatusSuccess || status == types.StatusEmpty {
		return nil
	}
	return fmt.Errorf("no snapshot published yet (status %s)", status)
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.config.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
