// Command loadgen replays nearest-airport queries against a running airportd
// and reports latency percentiles.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/httpclient"
)

type Config struct {
	TargetURL      string
	DataPath       string
	Codes          string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	FriendlyRatio  float64
	MapRatio       float64
	OutputPrefix   string
	RequestTimeout time.Duration
}

func loadConfig() Config {
	env := config.FromEnv()
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090", "airportd base URL")
	flag.StringVar(&cfg.DataPath, "data", env.Dataset.Path, "dataset used to pick query codes")
	flag.StringVar(&cfg.Codes, "codes", "", "comma-separated codes (skips -data)")
	flag.IntVar(&cfg.Concurrency, "concurrency", 16, "concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.2, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.Float64Var(&cfg.FriendlyRatio, "friendly", 0.3, "share of queries with filter=friendly")
	flag.Float64Var(&cfg.MapRatio, "map", 0.1, "share of queries sent to /map")
	flag.StringVar(&cfg.OutputPrefix, "out", "", "write <prefix>_samples.csv and <prefix>_summary.json")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Parse()
	return cfg
}

// request result (one sample per request)
type sample struct {
	Timestamp time.Time
	Latency   time.Duration
	Status    int
	ErrorMsg  string
	Path      string
	Code      string
	Filter    string
}

type summary struct {
	StartTime     time.Time `json:"start"`
	EndTime       time.Time `json:"end"`
	DurationSec   float64   `json:"duration_sec"`
	TotalRequests int64     `json:"total"`
	SuccessCount  int64     `json:"success"`
	NotFoundCount int64     `json:"not_found"`
	ErrorCount    int64     `json:"errors"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	Codes         int       `json:"codes"`
	TargetURL     string    `json:"target"`
}

type aggregatedResult struct {
	total    int64
	success  int64
	notFound int64
	errors   int64
	latMs    []float64
}

func main() {
	cfg := loadConfig()
	if cfg.ZipfS <= 1 || cfg.ZipfV < 1 || cfg.Concurrency < 1 {
		log.Fatalf("need zipf-s > 1, zipf-v >= 1 and concurrency >= 1")
	}

	codes, err := loadCodes(cfg)
	if err != nil {
		log.Fatalf("codes: %v", err)
	}
	if len(codes) == 0 {
		log.Fatalf("no query codes")
	}

	seed := time.Now().UnixNano()
	httpClient := httpclient.NewOutbound()
	httpClient.Timeout = cfg.RequestTimeout

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var csvWriter *csv.Writer
	if cfg.OutputPrefix != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
			log.Fatalf("mkdir results: %v", err)
		}
		f, err := os.Create(filepath.Clean(cfg.OutputPrefix + "_samples.csv"))
		if err != nil {
			log.Fatalf("open csv: %v", err)
		}
		defer func() { _ = f.Close() }()
		csvWriter = csv.NewWriter(f)
	}

	samplesChan := make(chan sample, 4096)
	resultsChan := make(chan aggregatedResult, 1)
	go collect(samplesChan, resultsChan, csvWriter)

	startTime := time.Now()
	log.Printf("loadgen start target=%s dur=%s conc=%d codes=%d zipf(s=%.2f,v=%.2f)",
		cfg.TargetURL, cfg.Duration, cfg.Concurrency, len(codes), cfg.ZipfS, cfg.ZipfV)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for workerID := range cfg.Concurrency {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(len(codes)-1))
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				code := codes[int(zipf.Uint64())]
				s := fire(ctx, httpClient, cfg, r, code)
				select {
				case samplesChan <- s:
				case <-ctx.Done():
					return
				}
			}
		}(workerID)
	}

	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samplesChan)
	}()

	agg := <-resultsChan
	endTime := time.Now()
	elapsed := endTime.Sub(startTime).Seconds()

	sort.Float64s(agg.latMs)
	runSummary := summary{
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationSec:   elapsed,
		TotalRequests: agg.total,
		SuccessCount:  agg.success,
		NotFoundCount: agg.notFound,
		ErrorCount:    agg.errors,
		ThroughputRPS: float64(agg.total) / elapsed,
		P50Ms:         percentile(agg.latMs, 50),
		P95Ms:         percentile(agg.latMs, 95),
		P99Ms:         percentile(agg.latMs, 99),
		Concurrency:   cfg.Concurrency,
		Codes:         len(codes),
		TargetURL:     cfg.TargetURL,
	}

	if cfg.OutputPrefix != "" {
		jsonPath := cfg.OutputPrefix + "_summary.json"
		if f, err := os.Create(filepath.Clean(jsonPath)); err == nil {
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			_ = enc.Encode(runSummary)
			_ = f.Close()
			log.Printf("wrote %s", jsonPath)
		}
	}

	log.Printf("done: total=%d ok=%d not_found=%d err=%d thr=%.2f rps p50=%.2fms p95=%.2fms p99=%.2fms",
		agg.total, agg.success, agg.notFound, agg.errors, runSummary.ThroughputRPS,
		runSummary.P50Ms, runSummary.P95Ms, runSummary.P99Ms)
}

func loadCodes(cfg Config) ([]string, error) {
	if strings.TrimSpace(cfg.Codes) != "" {
		var out []string
		for _, c := range strings.Split(cfg.Codes, ",") {
			if c = airports.NormalizeCode(c); c != "" {
				out = append(out, c)
			}
		}
		return out, nil
	}
	env := config.FromEnv()
	ds, _, err := airports.LoadFile(cfg.DataPath, airports.Options{
		Separator: env.Dataset.Separator,
		Encoding:  env.Dataset.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds.Codes(), nil
}

func buildURL(base, path, code, filter string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", fmt.Errorf("bad target URL: %w", err)
	}
	q := u.Query()
	q.Set("code", code)
	if filter != "" {
		q.Set("filter", filter)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fire(ctx context.Context, c *http.Client, cfg Config, r *rand.Rand, code string) sample {
	path, filter := "/nearest", "none"
	if r.Float64() < cfg.MapRatio {
		path = "/map"
	}
	if r.Float64() < cfg.FriendlyRatio {
		filter = "friendly"
	}
	s := sample{Timestamp: time.Now(), Path: path, Code: code, Filter: filter}

	target, err := buildURL(cfg.TargetURL, path, code, filter)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	s.Latency = time.Since(s.Timestamp)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	s.Status = resp.StatusCode
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		s.ErrorMsg = fmt.Sprintf("status=%d", resp.StatusCode)
	}
	return s
}

// collects samples until in is closed
func collect(in <-chan sample, out chan<- aggregatedResult, w *csv.Writer) {
	if w != nil {
		_ = w.Write([]string{"timestamp", "latency_ms", "status", "error", "path", "code", "filter"})
	}
	var agg aggregatedResult
	agg.latMs = make([]float64, 0, 1<<16)
	for s := range in {
		agg.total++
		ms := float64(s.Latency.Microseconds()) / 1000.0
		switch {
		case s.ErrorMsg != "":
			agg.errors++
		case s.Status == http.StatusNotFound:
			agg.notFound++
			agg.latMs = append(agg.latMs, ms)
		default:
			agg.success++
			agg.latMs = append(agg.latMs, ms)
		}
		if w != nil {
			_ = w.Write([]string{
				s.Timestamp.UTC().Format(time.RFC3339Nano),
				fmt.Sprintf("%.3f", ms),
				fmt.Sprintf("%d", s.Status),
				s.ErrorMsg,
				s.Path,
				s.Code,
				s.Filter,
			})
		}
	}
	if w != nil {
		w.Flush()
		if err := w.Error(); err != nil {
			log.Printf("csv flush error: %v", err)
		}
	}
	out <- agg
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
