package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nixpig/rsi/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsReadHeaderTimeout = 5 * time.Second

type metricsServer struct {
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

func newMetricsServer(
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))

	return &metricsServer{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		},
		logger: logger,
	}
}

// start serves metrics on listener until shutdown is called.
func (s *metricsServer) start(listener net.Listener) {
	s.addr = listener.Addr().String()

	s.logger.Info("serving metrics", "addr", s.addr)

	if err := s.httpServer.Serve(listener); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("serve metrics", "addr", s.addr, "err", err)
	}
}

func (s *metricsServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown metrics server", "err", err)
	}
}
