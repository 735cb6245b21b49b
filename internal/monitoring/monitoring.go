// Package monitoring serves the operational HTTP surface: Prometheus
// metrics and pprof profiling endpoints on a dedicated port.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func New(port int, log zerolog.Logger) *Server {
	h := http.NewServeMux()
	h.Handle("/metrics", promhttp.Handler())
	h.HandleFunc("/debug/pprof/", pprof.Index)
	h.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	h.HandleFunc("/debug/pprof/profile", pprof.Profile)
	h.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	h.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &Server{
		srv: &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: h},
		log: log.With().Str("module", "monitoring").Logger(),
	}
}

// Run serves until Shutdown. It blocks, so run it from its own goroutine.
func (s *Server) Run() {
	s.log.Info().Str("addr", s.srv.Addr).Msg("monitoring server started")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error().Err(err).Msg("monitoring server failed")
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down monitoring server")
	return s.srv.Shutdown(ctx)
}
