package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
)

// receives validated query requests and serves them
type QueryHandler interface {
	HandleQuery(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.QueryRequest)
}

// validates input query params and calls the handler
func HandleQuery(logger *slog.Logger, kind model.ResponseKind, h QueryHandler) http.HandlerFunc {
	route := "/" + string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q, warn, err := ParseQueryRequest(r, kind)
		if warn != "" {
			logger.WarnContext(r.Context(), warn)
		}
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, route, http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleQuery(r.Context(), sw, r, q)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// anything that could plausibly be typed into a code box; lookup decides
// whether it exists
var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

func ParseQueryRequest(r *http.Request, kind model.ResponseKind) (model.QueryRequest, string, error) {
	var warn string
	vals := r.URL.Query()

	code := strings.TrimSpace(vals.Get("code"))
	if code == "" {
		return model.QueryRequest{}, "", errors.New("missing required parameter: code")
	}
	if !codePattern.MatchString(code) {
		return model.QueryRequest{}, "", fmt.Errorf("invalid code %q", code)
	}
	if len(code) != 3 {
		warn = fmt.Sprintf("code %q is not a 3-letter IATA code", code)
	}

	filter, err := parseFilter(vals.Get("filter"))
	if err != nil {
		return model.QueryRequest{}, warn, err
	}

	return model.QueryRequest{
		Kind:   kind,
		Code:   strings.ToUpper(code),
		Filter: filter,
	}, warn, nil
}

func parseFilter(raw string) (model.FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "all":
		return model.FilterNone, nil
	case "friendly", "allowlist":
		return model.FilterFriendly, nil
	default:
		return "", fmt.Errorf("unsupported filter %q (want none or friendly)", raw)
	}
}
