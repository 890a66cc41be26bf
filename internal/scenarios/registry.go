package scenarios

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/router"
)

type Factory func(cfg config.Config, logger *slog.Logger, exec executor.Interface) (router.QueryHandler, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func New(name string, cfg config.Config, logger *slog.Logger, exec executor.Interface) (router.QueryHandler, error) {
	if f, ok := reg[name]; ok {
		return f(cfg, logger, exec)
	}
	if f, ok := reg["baseline"]; ok {
		logger.Warn("unknown scenario; falling back to baseline", "scenario", name)
		return f(cfg, logger, exec)
	}
	return nil, fmt.Errorf("no factory for scenario %q and no baseline registered", name)
}
