package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// startMetrics serves the registry on --metrics-addr until the returned stop
// function is called. It returns nil when the flag is unset.
func startMetrics(cmd *cobra.Command, logger zerolog.Logger) (prometheus.Registerer, func()) {
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		return nil, func() {}
	}

	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("Metrics endpoint enabled: /metrics")

	return reg, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
