package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/health"
	middleware "github.com/mohammed-shakir/airport-proximity/internal/core/middleware"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/router"
	"github.com/mohammed-shakir/airport-proximity/internal/hotness"
)

// NewRouter wires the HTTP surface. A nil hot disables /popular.
func NewRouter(logger *slog.Logger, ready health.ReadinessReporter, handler router.QueryHandler, hot hotness.Ranker) http.Handler {
	deps := map[string]health.Pinger{}
	if p, ok := handler.(health.Pinger); ok {
		deps["cache"] = p
	}
	if hot != nil {
		handler = hotness.Track(handler, hot)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready, deps))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	public := map[string]http.HandlerFunc{
		"/nearest": router.HandleQuery(logger, model.KindNearest, handler),
		"/map":     router.HandleQuery(logger, model.KindMap, handler),
	}
	if hot != nil {
		public["/popular"] = hotness.Handler(hot)
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS())
		for path, h := range public {
			r.Get(path, h)
			r.Options(path, middleware.Preflight)
		}
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, ready health.ReadinessReporter, handler router.QueryHandler, hot hotness.Ranker) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(logger, ready, handler, hot),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
