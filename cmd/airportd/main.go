package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
	"github.com/mohammed-shakir/airport-proximity/internal/core/server"
	"github.com/mohammed-shakir/airport-proximity/internal/hotness"
	"github.com/mohammed-shakir/airport-proximity/internal/hotness/expdecay"
	"github.com/mohammed-shakir/airport-proximity/internal/logger"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/metrics"
	"github.com/mohammed-shakir/airport-proximity/internal/queryevents"
	"github.com/mohammed-shakir/airport-proximity/internal/scenarios"
	_ "github.com/mohammed-shakir/airport-proximity/internal/scenarios/baseline"
	_ "github.com/mohammed-shakir/airport-proximity/internal/scenarios/cache"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// flags override env
	scenarioFlag := flag.String("scenario", "", "scenario name ("+strings.Join(scenarios.Names(), "|")+")")
	dataFlag := flag.String("data", "", "airport dataset path")
	flag.Parse()

	cfg := config.FromEnv()
	if *scenarioFlag != "" {
		cfg.Scenario = strings.TrimSpace(*scenarioFlag)
	}
	if *dataFlag != "" {
		cfg.Dataset.Path = *dataFlag
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Scenario:  cfg.Scenario,
		Component: "airportd",
		Version:   Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.SetScenario(cfg.Scenario)
	observability.ExposeBuildInfo(Version)
	appLog.Info("starting airportd",
		"addr", cfg.Addr,
		"version", Version,
		"dataset", cfg.Dataset.Path,
		"scenario", cfg.Scenario)

	ds, stats, err := airports.LoadFile(cfg.Dataset.Path, airports.Options{
		Separator: cfg.Dataset.Separator,
		Encoding:  cfg.Dataset.Encoding,
		Logger:    appLog,
	})
	if err != nil {
		appLog.Error("failed to load airport dataset", "path", cfg.Dataset.Path, "err", err)
		return 1
	}
	observability.SetDatasetSize(ds.Len(), stats.Malformed, stats.NoCoordinates)

	mapr, err := h3mapper.New(cfg.H3Res)
	if err != nil {
		appLog.Error("invalid h3 resolution", "res", cfg.H3Res, "err", err)
		return 1
	}

	var sink queryevents.Sink = queryevents.Nop{}
	if cfg.QueryEvents.Enabled {
		pub, err := queryevents.Dial(cfg.QueryEvents.Brokers, cfg.QueryEvents.Topic, cfg.QueryEvents.QueueSize, appLog)
		if err != nil {
			// events are optional; serve without them
			appLog.Warn("query events disabled", "brokers", cfg.QueryEvents.Brokers, "err", err)
		} else {
			defer func() { _ = pub.Close() }()
			sink = pub
			appLog.Info("query events enabled", "topic", cfg.QueryEvents.Topic)
		}
	}

	allow := model.NewCountryAllowList(cfg.FriendlyCountries...)
	exec := executor.New(appLog, ds, allow, mapr, sink, executor.WithScenario(cfg.Scenario))

	// selected scenario
	handler, err := scenarios.New(cfg.Scenario, cfg, appLog, exec)
	if err != nil {
		appLog.Error("scenario setup failed", "err", err)
		return 1
	}
	if c, ok := handler.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				appLog.Warn("scenario close failed", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var hot hotness.Ranker
	if cfg.PopularHalfLife > 0 {
		hot = expdecay.New(cfg.PopularHalfLife)
	}

	if cfg.Metrics.Enabled {
		mp := metrics.Init(metrics.Config{
			Addr: cfg.Metrics.Addr,
			Path: cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		if hot != nil {
			mp.GaugeFunc("popular_tracked_origins", "Distinct origin codes held by the popularity tracker.",
				func() float64 { return float64(hot.Size()) })
		}
		go func() {
			if err := mp.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, ds, handler, hot); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
