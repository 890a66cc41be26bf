package hotness

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/router"
)

const (
	defaultTop = 10
	maxTop     = 100
)

type tracked struct {
	next router.QueryHandler
	t    Interface
}

// Track counts origins of successful queries. Unknown codes never reach
// the tracker, so its size is bounded by the dataset.
func Track(next router.QueryHandler, t Interface) router.QueryHandler {
	return &tracked{next: next, t: t}
}

func (h *tracked) HandleQuery(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.QueryRequest) {
	cw := &codeWriter{ResponseWriter: w, code: http.StatusOK}
	h.next.HandleQuery(ctx, cw, r, q)
	if cw.code == http.StatusOK {
		h.t.Inc(q.Code)
	}
}

type codeWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type topBody struct {
	Origins []Entry `json:"origins"`
	Tracked int     `json:"tracked"`
}

// Handler serves the most queried origins; ?limit= caps the list and
// ?code= returns the score of a single origin.
func Handler(rk Ranker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code"))); code != "" {
			_ = json.NewEncoder(w).Encode(Entry{Code: code, Score: rk.Score(code)})
			return
		}

		n := defaultTop
		if s := r.URL.Query().Get("limit"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			n = min(v, maxTop)
		}
		top := rk.Top(n)
		if top == nil {
			top = []Entry{}
		}
		_ = json.NewEncoder(w).Encode(topBody{Origins: top, Tracked: rk.Size()})
	}
}
