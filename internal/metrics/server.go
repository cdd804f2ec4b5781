package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the tiny local ops HTTP server SPEC_FULL.md §3 names
// ("a tiny local /metrics + /healthz HTTP server (ops-only, read-only,
// no order surface)"), grounded on the teacher's gorilla/mux interface
// layer. HealthFn reports process liveness for /healthz; it never
// blocks on network I/O.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, m *Metrics, healthFn func() bool) *Server {
	router := mux.NewRouter()

	if m != nil {
		router.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if healthFn != nil && !healthFn() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Serve blocks until ctx is cancelled or the listener fails; it is
// meant to run in its own goroutine alongside the main cycle loop.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
