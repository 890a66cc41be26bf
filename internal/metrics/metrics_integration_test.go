package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") && !strings.HasPrefix(ln, metric+" ") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_ServiceMetrics_OnCustomRegistry(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.SetScenario("baseline")

	observability.ObserveHTTP("GET", "/nearest", 200, 0.002)
	observability.ObserveQuery("no_candidates", "friendly", 0, 0.0003)
	observability.SetDatasetSize(4, 0, 0)

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()

	assertHasMetricLine(t, body, "http_requests_total", `route="/nearest"`, `status="200"`)
	assertHasMetricLine(t, body, "nearest_queries_total", `outcome="no_candidates"`, `filter="friendly"`)
	assertHasMetricLine(t, body, "dataset_airports")
	assertHasMetricLine(t, body, "app_build_info", `version="test"`)
}
