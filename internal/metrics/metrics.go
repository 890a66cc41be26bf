// Package metrics exposes Prometheus metrics on a dedicated registry and
// listener, apart from the public query port.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

type Config struct {
	Addr  string
	Path  string
	Build BuildInfo
}

type Provider struct {
	reg  *prometheus.Registry
	addr string
	path string
}

// Init builds a registry holding the Go runtime, process, build and
// service collectors.
func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(observability.Collectors()...)

	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "app_build_info",
		Help: "Build info for this binary (value is always 1).",
		ConstLabels: prometheus.Labels{
			"version":    v.Version,
			"revision":   v.Revision,
			"branch":     v.Branch,
			"build_date": v.BuildDate,
		},
	}, func() float64 { return 1 }))

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	return &Provider{reg: reg, addr: cfg.Addr, path: path}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

// GaugeFunc exposes a value sampled at scrape time.
func (p *Provider) GaugeFunc(name, help string, fn func() float64) {
	p.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

// Serve listens on the configured address and blocks until ctx is done or
// the listener fails.
func (p *Provider) Serve(ctx context.Context, log *slog.Logger) error {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", p.addr, err)
	}
	return p.serve(ctx, ln, log)
}

func (p *Provider) serve(ctx context.Context, ln net.Listener, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(p.path, p.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listen", "addr", ln.Addr().String(), "path", p.path)
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
