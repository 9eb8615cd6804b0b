package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ScanState is the read-only view of a running scanner served over HTTP.
type ScanState interface {
	Interface() string
	Cache(ctx context.Context) map[string]string
}

// Server exposes Prometheus metrics, a health check and the correlation
// cache of the active scanner.
type Server struct {
	Addr     string
	Gatherer prometheus.Gatherer
	State    ScanState
	started  time.Time
	srv      *http.Server
}

// NewServer creates a new metrics server. A nil gatherer serves the
// Prometheus default registry.
func NewServer(addr string, gatherer prometheus.Gatherer, state ScanState) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		Addr:     addr,
		Gatherer: gatherer,
		State:    state,
		started:  time.Now(),
	}
}

// Handler returns the instrumented route tree.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(SetupRoutes(s), "pmkscan-metrics")
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown error", "error", err)
		}
	}()

	slog.Info("Metrics server listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
