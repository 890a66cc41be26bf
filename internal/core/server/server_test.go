package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	tiered "github.com/mohammed-shakir/airport-proximity/internal/cache"
	"github.com/mohammed-shakir/airport-proximity/internal/cache/local"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/server"
	"github.com/mohammed-shakir/airport-proximity/internal/hotness/expdecay"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/render"
	"github.com/mohammed-shakir/airport-proximity/internal/scenarios/baseline"
	cachescenario "github.com/mohammed-shakir/airport-proximity/internal/scenarios/cache"
)

func newServer(t *testing.T) (*httptest.Server, *expdecay.Tracker) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := airports.NewDataset([]model.Airport{
		{IATA: "SVO", Name: "Sheremetyevo", City: "Moscow", Country: "Russia", Lat: 55.9726, Lon: 37.4146},
		{IATA: "DXB", Name: "Dubai Intl", City: "Dubai", Country: "UAE", Lat: 25.2528, Lon: 55.3644},
		{IATA: "JFK", Name: "John F Kennedy", City: "New York", Country: "USA", Lat: 40.6398, Lon: -73.7789},
		{IATA: "LAX", Name: "Los Angeles Intl", City: "Los Angeles", Country: "USA", Lat: 33.9425, Lon: -118.4081},
	})
	m, err := h3mapper.New(4)
	if err != nil {
		t.Fatalf("mapper: %v", err)
	}
	exec := executor.New(logger, ds, model.NewCountryAllowList("UAE"), m, nil)
	hot := expdecay.New(time.Hour)
	srv := httptest.NewServer(server.NewRouter(logger, ds, baseline.New(logger, exec), hot))
	t.Cleanup(srv.Close)
	return srv, hot
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func TestServer_Nearest(t *testing.T) {
	srv, _ := newServer(t)

	resp, b := get(t, srv.URL+"/nearest?code=svo")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, b)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
	var body render.Response
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got []string
	for _, r := range body.Nearest {
		got = append(got, r.IATA)
	}
	if strings.Join(got, ",") != "DXB,JFK,LAX" {
		t.Fatalf("nearest=%v", got)
	}
}

func TestServer_FriendlyNoCandidates(t *testing.T) {
	srv, _ := newServer(t)
	resp, b := get(t, srv.URL+"/nearest?code=DXB&filter=friendly")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var body render.Response
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Nearest) != 0 || body.Message == "" {
		t.Fatalf("expected empty table with message, got %+v", body)
	}
}

func TestServer_StatusCodes(t *testing.T) {
	srv, _ := newServer(t)

	cases := []struct {
		path string
		want int
	}{
		{"/nearest?code=ZZZ", http.StatusNotFound},
		{"/nearest", http.StatusBadRequest},
		{"/nearest?code=SVO&filter=bogus", http.StatusBadRequest},
		{"/map?code=SVO", http.StatusOK},
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
	}
	for _, c := range cases {
		resp, b := get(t, srv.URL+c.path)
		if resp.StatusCode != c.want {
			t.Fatalf("%s: status=%d want %d body=%s", c.path, resp.StatusCode, c.want, b)
		}
	}
}

func TestServer_PopularTracksResolvedOrigins(t *testing.T) {
	srv, hot := newServer(t)
	get(t, srv.URL+"/nearest?code=JFK")
	get(t, srv.URL+"/map?code=JFK")
	get(t, srv.URL+"/nearest?code=ZZZ")

	if got := hot.Score("JFK"); got < 1.99 {
		t.Fatalf("JFK score=%g want ~2", got)
	}
	if hot.Score("ZZZ") != 0 {
		t.Fatalf("unknown code tracked")
	}
	resp, b := get(t, srv.URL+"/popular")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), `"iata_code":"JFK"`) {
		t.Fatalf("popular: status=%d body=%s", resp.StatusCode, b)
	}
}

func TestServer_ReadyzReportsCacheDependency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := airports.NewDataset([]model.Airport{{IATA: "SVO", Country: "Russia", Lat: 55.97, Lon: 37.41}})
	exec := executor.New(logger, ds, model.NewCountryAllowList(), nil, nil)
	h := cachescenario.New(logger, exec, tiered.NewTiered(local.New(8, time.Minute), nil, time.Minute, 0, logger))

	srv := httptest.NewServer(server.NewRouter(logger, ds, h, nil))
	defer srv.Close()

	resp, b := get(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), `"cache":"ok"`) {
		t.Fatalf("readyz: status=%d body=%s", resp.StatusCode, b)
	}
	if resp, _ := get(t, srv.URL+"/popular"); resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("/popular should not be mounted without a tracker, got %d", resp.StatusCode)
	}
}

func TestServer_CORSOnlyOnQueryRoutes(t *testing.T) {
	srv, _ := newServer(t)

	for _, path := range []string{"/nearest?code=SVO", "/map?code=SVO", "/popular"} {
		resp, _ := get(t, srv.URL+path)
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s: missing CORS header", path)
		}
	}
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, _ := get(t, srv.URL+path)
		if resp.Header.Get("Access-Control-Allow-Origin") != "" {
			t.Fatalf("%s: unexpected CORS header", path)
		}
	}

	for _, c := range []struct {
		path string
		want int
	}{
		{"/nearest", http.StatusNoContent},
		{"/map", http.StatusNoContent},
		{"/healthz", http.StatusMethodNotAllowed},
	} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+c.path, nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS %s: %v", c.path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != c.want {
			t.Fatalf("OPTIONS %s: status=%d want %d", c.path, resp.StatusCode, c.want)
		}
	}
}
