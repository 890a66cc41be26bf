package baseline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/router"
	"github.com/mohammed-shakir/airport-proximity/internal/scenarios"
)

type Engine struct {
	logger *slog.Logger
	exec   executor.Interface
}

func init() {
	scenarios.Register("baseline", newBaseline)
}

func newBaseline(_ config.Config, logger *slog.Logger, exec executor.Interface) (router.QueryHandler, error) {
	return New(logger, exec), nil
}

func New(logger *slog.Logger, exec executor.Interface) *Engine {
	return &Engine{logger: logger, exec: exec}
}

// HandleQuery ranks on every request.
func (e *Engine) HandleQuery(ctx context.Context, w http.ResponseWriter, _ *http.Request, q model.QueryRequest) {
	resp := e.exec.Execute(ctx, q)
	e.logger.DebugContext(ctx, "baseline response", "kind", string(q.Kind), "status", resp.Status, "bytes", len(resp.Body))
	executor.Write(w, resp)
}
