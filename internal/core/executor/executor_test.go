package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	mylog "github.com/mohammed-shakir/airport-proximity/internal/logger"
	h3mapper "github.com/mohammed-shakir/airport-proximity/internal/mapper/h3"
	"github.com/mohammed-shakir/airport-proximity/internal/queryevents"
	"github.com/mohammed-shakir/airport-proximity/internal/render"
)

type recordingSink struct {
	mu     sync.Mutex
	events []queryevents.Event
}

func (s *recordingSink) Publish(ev queryevents.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func newExec(t *testing.T, sink queryevents.Sink) *Executor {
	t.Helper()
	ds := airports.NewDataset([]model.Airport{
		{IATA: "JFK", Name: "John F Kennedy", City: "New York", Country: "USA", Lat: 40.6398, Lon: -73.7789},
		{IATA: "LAX", Name: "Los Angeles Intl", City: "Los Angeles", Country: "USA", Lat: 33.9425, Lon: -118.4081},
		{IATA: "SVO", Name: "Sheremetyevo", City: "Moscow", Country: "Russia", Lat: 55.9726, Lon: 37.4146},
		{IATA: "DXB", Name: "Dubai Intl", City: "Dubai", Country: "UAE", Lat: 25.2528, Lon: 55.3644},
	})
	m, err := h3mapper.New(5)
	if err != nil {
		t.Fatalf("mapper: %v", err)
	}
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), ds, model.NewCountryAllowList("UAE"), m, sink)
}

func TestExecute_NearestTable(t *testing.T) {
	sink := &recordingSink{}
	e := newExec(t, sink)

	resp := e.Execute(context.Background(), model.QueryRequest{Kind: model.KindNearest, Code: "svo", Filter: model.FilterNone})
	if resp.Status != http.StatusOK || resp.ContentType != ContentTypeJSON {
		t.Fatalf("status=%d ct=%s", resp.Status, resp.ContentType)
	}
	var body render.Response
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Origin.IATA != "SVO" || len(body.Nearest) != 3 || body.Nearest[0].IATA != "DXB" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(sink.events) != 1 || sink.events[0].Outcome != "ok" || sink.events[0].Code != "SVO" || sink.events[0].Lat == nil {
		t.Fatalf("events=%+v", sink.events)
	}
}

func TestExecute_NotFound(t *testing.T) {
	sink := &recordingSink{}
	e := newExec(t, sink)

	for _, kind := range []model.ResponseKind{model.KindNearest, model.KindMap} {
		resp := e.Execute(context.Background(), model.QueryRequest{Kind: kind, Code: "ZZZ", Filter: model.FilterNone})
		if resp.Status != http.StatusNotFound {
			t.Fatalf("%s: status=%d want 404", kind, resp.Status)
		}
		if !strings.Contains(string(resp.Body), MsgNotFound) {
			t.Fatalf("%s: body=%s", kind, resp.Body)
		}
		if strings.Contains(string(resp.Body), "features") {
			t.Fatalf("%s: not-found must not render markers", kind)
		}
	}
	if sink.events[0].Outcome != "not_found" || sink.events[0].Lat != nil {
		t.Fatalf("event=%+v", sink.events[0])
	}
}

func TestExecute_NoCandidatesHasMessageAndOriginOnlyMap(t *testing.T) {
	e := newExec(t, nil)
	e.allow = model.NewCountryAllowList("Mars")

	resp := e.Execute(context.Background(), model.QueryRequest{Kind: model.KindNearest, Code: "SVO", Filter: model.FilterFriendly})
	if resp.Status != http.StatusOK {
		t.Fatalf("status=%d", resp.Status)
	}
	var body render.Response
	_ = json.Unmarshal(resp.Body, &body)
	if body.Message != MsgNoCandidates || len(body.Nearest) != 0 {
		t.Fatalf("body=%+v", body)
	}

	resp = e.Execute(context.Background(), model.QueryRequest{Kind: model.KindMap, Code: "SVO", Filter: model.FilterFriendly})
	var fc render.FeatureCollection
	if err := json.Unmarshal(resp.Body, &fc); err != nil {
		t.Fatalf("decode map: %v", err)
	}
	if resp.ContentType != ContentTypeGeoJSON || len(fc.Features) != 1 || fc.Features[0].ID != "SVO" {
		t.Fatalf("want origin-only map, got %s", resp.Body)
	}
}

func TestExecute_FriendlyFilter(t *testing.T) {
	e := newExec(t, nil)
	resp := e.Execute(context.Background(), model.QueryRequest{Kind: model.KindNearest, Code: "SVO", Filter: model.FilterFriendly})
	var body render.Response
	_ = json.Unmarshal(resp.Body, &body)
	if len(body.Nearest) != 1 || body.Nearest[0].Country != "UAE" || body.Filter != model.FilterFriendly {
		t.Fatalf("body=%+v", body)
	}
}

func TestWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, Response{Status: http.StatusTeapot, ContentType: "text/plain", Body: []byte("hi")})
	if rr.Code != http.StatusTeapot || rr.Header().Get("Content-Type") != "text/plain" || rr.Body.String() != "hi" {
		t.Fatalf("unexpected recorder %+v", rr)
	}
}

func TestExecute_TagsScenario(t *testing.T) {
	var buf bytes.Buffer
	zl := mylog.Build(mylog.Config{Level: "debug", Component: "airportd"}, &buf)
	sink := &recordingSink{}
	ds := airports.NewDataset([]model.Airport{
		{IATA: "SVO", Country: "Russia", Lat: 55.9726, Lon: 37.4146},
		{IATA: "DXB", Country: "UAE", Lat: 25.2528, Lon: 55.3644},
	})
	e := New(mylog.NewSlog(&zl), ds, model.NewCountryAllowList(), nil, sink, WithScenario("cache"))

	e.Execute(context.Background(), model.QueryRequest{Kind: model.KindNearest, Code: "SVO", Filter: model.FilterNone})

	if len(sink.events) != 1 || sink.events[0].Scenario != "cache" {
		t.Fatalf("event scenario not set: %+v", sink.events)
	}
	if !strings.Contains(buf.String(), `"scenario":"cache"`) || !strings.Contains(buf.String(), `"origin":"SVO"`) {
		t.Fatalf("log line missing scenario/origin: %s", buf.String())
	}
}
