// Package executor runs a nearest-airport query and renders its response.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
	mylog "github.com/mohammed-shakir/airport-proximity/internal/logger"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/nearest"
	"github.com/mohammed-shakir/airport-proximity/internal/queryevents"
	"github.com/mohammed-shakir/airport-proximity/internal/render"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeGeoJSON = "application/geo+json"

	MsgNotFound     = "airport not found"
	MsgNoCandidates = "no airports in the allowed countries"
)

type Interface interface {
	Execute(ctx context.Context, q model.QueryRequest) Response
	Dataset() *airports.Dataset
	AllowList() model.CountryAllowList
}

// Response is a fully rendered reply. It is deterministic for a given
// dataset and request, which is what makes it cacheable.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Executor struct {
	logger *slog.Logger
	ds     *airports.Dataset
	allow  model.CountryAllowList
	mapr   *h3mapper.Mapper
	events queryevents.Sink
	// scenario tags logs and events with the serving scenario
	scenario string
	now      func() time.Time // for tests
}

type Option func(*Executor)

func WithScenario(name string) Option {
	return func(e *Executor) { e.scenario = name }
}

func New(logger *slog.Logger, ds *airports.Dataset, allow model.CountryAllowList, mapr *h3mapper.Mapper, events queryevents.Sink, opts ...Option) *Executor {
	if events == nil {
		events = queryevents.Nop{}
	}
	e := &Executor{
		logger: logger,
		ds:     ds,
		allow:  allow,
		mapr:   mapr,
		events: events,
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Executor) Dataset() *airports.Dataset { return e.ds }

func (e *Executor) AllowList() model.CountryAllowList { return e.allow }

func (e *Executor) Execute(ctx context.Context, q model.QueryRequest) Response {
	ctx = mylog.WithOrigin(ctx, q.Code)
	ctx = mylog.WithScenario(ctx, e.scenario)

	var filter nearest.Filter
	if q.Filter == model.FilterFriendly {
		filter = e.allow
	}

	start := e.now()
	res, err := nearest.FindNearest(q.Code, e.ds, filter)
	elapsed := e.now().Sub(start).Seconds()

	outcome := "ok"
	switch {
	case errors.Is(err, nearest.ErrAirportNotFound):
		outcome = "not_found"
	case errors.Is(err, nearest.ErrNoCandidatesAfterFilter):
		outcome = "no_candidates"
	}
	observability.ObserveQuery(outcome, string(q.Filter), res.Skipped, elapsed)
	e.publish(q, outcome, res)

	e.logger.DebugContext(ctx, "nearest query",
		"filter", string(q.Filter),
		"outcome", outcome,
		"results", len(res.Nearest),
		"skipped", res.Skipped,
		"excluded", res.Excluded)

	if outcome == "not_found" {
		return e.encode(ctx, http.StatusNotFound, ContentTypeJSON, errorBody{Error: MsgNotFound, Code: q.Code})
	}

	if q.Kind == model.KindMap {
		return e.encode(ctx, http.StatusOK, ContentTypeGeoJSON, render.Map(res, e.mapr))
	}

	msg := ""
	if outcome == "no_candidates" {
		msg = MsgNoCandidates
	}
	return e.encode(ctx, http.StatusOK, ContentTypeJSON, render.NewResponse(res, q.Filter, msg))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (e *Executor) encode(ctx context.Context, status int, ct string, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		e.logger.ErrorContext(ctx, "encode response failed", "err", err)
		return Response{
			Status:      http.StatusInternalServerError,
			ContentType: ContentTypeJSON,
			Body:        []byte(`{"error":"internal error"}`),
		}
	}
	return Response{Status: status, ContentType: ct, Body: b}
}

func (e *Executor) publish(q model.QueryRequest, outcome string, res nearest.Result) {
	ev := queryevents.Event{
		Code:     airports.NormalizeCode(q.Code),
		Filter:   string(q.Filter),
		Outcome:  outcome,
		Results:  len(res.Nearest),
		TS:       e.now().UTC(),
		Scenario: e.scenario,
	}
	if outcome != "not_found" && !math.IsNaN(res.Origin.Lat) && !math.IsNaN(res.Origin.Lon) {
		lat, lon := res.Origin.Lat, res.Origin.Lon
		ev.Lat, ev.Lon = &lat, &lon
	}
	e.events.Publish(ev)
}

// Write sends r to w.
func Write(w http.ResponseWriter, r Response) {
	w.Header().Set("Content-Type", r.ContentType)
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}
