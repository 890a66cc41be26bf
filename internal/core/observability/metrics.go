package observability

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var scenarioLabel atomic.Value

func init() {
	scenarioLabel.Store("baseline")
	prometheus.MustRegister(Collectors()...)
	prometheus.MustRegister(buildInfo)
}

func SetScenario(s string) {
	if s == "" {
		s = "baseline"
	}
	scenarioLabel.Store(s)
}

func getScenario() string {
	if v := scenarioLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "baseline"
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status", "scenario"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status", "scenario"},
	)

	nearestQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearest_queries_total",
			Help: "Nearest-airport queries by outcome and filter mode.",
		},
		[]string{"outcome", "filter", "scenario"},
	)

	nearestQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearest_query_duration_seconds",
			Help:    "Time spent ranking candidates for one query.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)

	candidatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nearest_candidates_skipped_total",
			Help: "Candidates skipped because their coordinates are unusable.",
		},
	)

	datasetAirports = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_airports",
			Help: "Airport records in the loaded dataset.",
		},
	)

	datasetRowsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_rows_rejected_total",
			Help: "Dataset rows with problems seen at load time.",
		},
		[]string{"reason"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome and tier.",
		},
		[]string{"outcome", "tier", "scenario"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	queryEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "query_events_dropped_total",
			Help: "Query events dropped because the publish queue was full.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

// Collectors returns every service metric so a dedicated registry can
// expose them next to the default one.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		nearestQueries,
		nearestQueryDuration,
		candidatesSkipped,
		datasetAirports,
		datasetRowsRejected,
		cacheResults,
		cacheOpTotal,
		redisOpDuration,
		queryEventsDropped,
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	s := getScenario()
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st, s).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st, s).Observe(durationSeconds)
}

// ObserveQuery records one ranking pass. outcome is ok, not_found or
// no_candidates.
func ObserveQuery(outcome, filter string, skipped int, durationSeconds float64) {
	nearestQueries.WithLabelValues(outcome, filter, getScenario()).Inc()
	nearestQueryDuration.Observe(durationSeconds)
	if skipped > 0 {
		candidatesSkipped.Add(float64(skipped))
	}
}

func SetDatasetSize(n int, malformed, noCoords int) {
	datasetAirports.Set(float64(n))
	if malformed > 0 {
		datasetRowsRejected.WithLabelValues("malformed").Add(float64(malformed))
	}
	if noCoords > 0 {
		datasetRowsRejected.WithLabelValues("no_coordinates").Add(float64(noCoords))
	}
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues("hit", tier, getScenario()).Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues("miss", tier, getScenario()).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func IncQueryEventDropped() {
	queryEventsDropped.Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
