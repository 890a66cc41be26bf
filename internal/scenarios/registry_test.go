package scenarios_test

import (
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/mohammed-shakir/airport-proximity/internal/airports"
	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/scenarios"
	_ "github.com/mohammed-shakir/airport-proximity/internal/scenarios/baseline"
	_ "github.com/mohammed-shakir/airport-proximity/internal/scenarios/cache"
)

func TestRegistry_FallbackToBaseline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.FromEnv()

	ds := airports.NewDataset([]model.Airport{{IATA: "SVO", Country: "Russia", Lat: 55.97, Lon: 37.41}})
	exec := executor.New(logger, ds, model.NewCountryAllowList("Russia"), nil, nil)

	h, err := scenarios.New("totally-unknown", cfg, logger, exec)
	if err != nil || h == nil {
		t.Fatalf("expected fallback to baseline, got err=%v h=%v", err, h)
	}
}

func TestRegistry_Names(t *testing.T) {
	names := scenarios.Names()
	for _, want := range []string{"baseline", "cache"} {
		if !slices.Contains(names, want) {
			t.Fatalf("scenario %q not registered: %v", want, names)
		}
	}
	if !slices.IsSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
}
