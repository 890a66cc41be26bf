package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessReporter reports how many airports are loaded.
type ReadinessReporter interface {
	Len() int
}

// Pinger is an optional dependency such as the shared cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = time.Second

type readiness struct {
	Status   string            `json:"status"`
	Airports int               `json:"airports"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Readiness is ready once at least one airport is loaded. A failing
// dependency reports degraded and still answers 200.
func Readiness(rr ReadinessReporter, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 0
		if rr != nil {
			n = rr.Len()
		}
		out := readiness{Status: "ready", Airports: n}

		for name, p := range deps {
			if out.Checks == nil {
				out.Checks = make(map[string]string, len(deps))
			}
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			err := p.Ping(ctx)
			cancel()
			if err != nil {
				out.Checks[name] = err.Error()
				out.Status = "degraded"
				continue
			}
			out.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		if n == 0 {
			out.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
