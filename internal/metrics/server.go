package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /metrics and /health over HTTP.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// NewServer binds addr and prepares the metrics endpoint.
//
// Parameters:
//   - addr: Listen address (e.g., ":9090"; ":0" picks a free port)
//   - gatherer: Registry to expose (nil uses prometheus.DefaultGatherer)
//
// Returns:
//   - *Server: Bound server; call Serve to accept requests
//   - error: Listen failure
func NewServer(addr string, gatherer prometheus.Gatherer) (*Server, error) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts requests until ctx is cancelled, then shuts down gracefully.
//
// Returns:
//   - error: Serve or shutdown failure, nil after a clean shutdown
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
