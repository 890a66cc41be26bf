package queryevents

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama/mocks"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublisher_SendsJSONEvents(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, nil)
	check := func(code string) mocks.ValueChecker {
		return func(b []byte) error {
			var ev Event
			if err := json.Unmarshal(b, &ev); err != nil {
				return err
			}
			if ev.Code != code || ev.TS.IsZero() {
				return fmt.Errorf("unexpected event %+v", ev)
			}
			return nil
		}
	}
	prod.ExpectInputWithCheckerFunctionAndSucceed(check("SVO"))
	prod.ExpectInputWithCheckerFunctionAndSucceed(check("ZZZ"))

	p := NewPublisher(prod, "airport-queries", 8, discard())
	lat, lon := 55.9726, 37.4146
	p.Publish(Event{Code: "SVO", Filter: "none", Outcome: "ok", Results: 3, Lat: &lat, Lon: &lon})
	p.Publish(Event{Code: "ZZZ", Filter: "none", Outcome: "not_found"})

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// second close is a no-op
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNop_Publish(t *testing.T) {
	var s Sink = Nop{}
	s.Publish(Event{Code: "SVO"})
}

func TestPublisher_PublishAfterCloseIsDropped(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, nil)
	prod.ExpectInputAndSucceed()

	p := NewPublisher(prod, "airport-queries", 4, discard())
	p.Publish(Event{Code: "SVO", Outcome: "ok"})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p.Publish(Event{Code: "LED", Outcome: "ok"})
	if got := p.dropped.Load(); got != 1 {
		t.Fatalf("dropped=%d want 1", got)
	}
}
