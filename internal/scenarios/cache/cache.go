// Package cache serves queries from a tiered response cache. The dataset is
// immutable and ranking is a pure function of it, so a cached body always
// equals a freshly computed one; keys carry the dataset fingerprint.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	tiered "github.com/mohammed-shakir/airport-proximity/internal/cache"
	"github.com/mohammed-shakir/airport-proximity/internal/cache/keys"
	"github.com/mohammed-shakir/airport-proximity/internal/cache/local"
	"github.com/mohammed-shakir/airport-proximity/internal/cache/redisstore"
	"github.com/mohammed-shakir/airport-proximity/internal/core/config"
	"github.com/mohammed-shakir/airport-proximity/internal/core/executor"
	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
	"github.com/mohammed-shakir/airport-proximity/internal/core/router"
	mylog "github.com/mohammed-shakir/airport-proximity/internal/logger"
	"github.com/mohammed-shakir/airport-proximity/internal/scenarios"
)

const (
	headerCache = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
)

type Engine struct {
	logger *slog.Logger
	exec   executor.Interface
	store  *tiered.Tiered
	group  singleflight.Group

	redis     *redisstore.Client
	redisAddr string
}

func init() {
	scenarios.Register("cache", newCache)
}

// creates the cache scenario; an unreachable Redis degrades to local-only
func newCache(cfg config.Config, logger *slog.Logger, exec executor.Interface) (router.QueryHandler, error) {
	var (
		remote tiered.Remote
		rc     *redisstore.Client
	)
	if cfg.RedisAddr != "" {
		dial := cfg.RedisDialTimeout
		if dial <= 0 {
			dial = time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), dial)
		defer cancel()
		c, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithPoolSize(cfg.RedisPoolSize),
			redisstore.WithDialTimeout(dial),
			redisstore.WithReadTimeout(cfg.CacheOpTimeout),
			redisstore.WithWriteTimeout(cfg.CacheOpTimeout))
		if err != nil {
			logger.Warn("redis unavailable; using local cache only", "addr", cfg.RedisAddr, "err", err)
		} else {
			rc, remote = c, c
		}
	}
	store := tiered.NewTiered(local.New(cfg.CacheLocalSize, cfg.CacheTTL), remote, cfg.CacheTTL, cfg.CacheOpTimeout, logger)
	e := New(logger, exec, store)
	e.redis = rc
	e.redisAddr = cfg.RedisAddr
	return e, nil
}

func New(logger *slog.Logger, exec executor.Interface, store *tiered.Tiered) *Engine {
	return &Engine{logger: logger, exec: exec, store: store}
}

// Ping reports the shared tier. A configured Redis that could not be
// reached at startup stays an error for the life of the process.
func (e *Engine) Ping(ctx context.Context) error {
	if e.redisAddr != "" && !e.store.HasRemote() {
		return fmt.Errorf("redis %s unavailable; serving from local cache", e.redisAddr)
	}
	return e.store.Ping(ctx)
}

// Close releases the Redis connection pool.
func (e *Engine) Close() error {
	if e.redis == nil {
		return nil
	}
	return e.redis.Close()
}

func (e *Engine) HandleQuery(ctx context.Context, w http.ResponseWriter, _ *http.Request, q model.QueryRequest) {
	key := keys.Key(string(q.Kind), q.Code, q.Filter, e.exec.AllowList(), e.exec.Dataset().Fingerprint())

	if b, ok := e.store.Get(ctx, key); ok {
		var resp executor.Response
		if err := json.Unmarshal(b, &resp); err == nil {
			e.logger.DebugContext(mylog.WithOutcome(ctx, "hit"), "cache hit", "key", key)
			w.Header().Set(headerCache, cacheHit)
			executor.Write(w, resp)
			return
		}
		e.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
		e.store.Remove(ctx, key)
	}

	// concurrent misses on one key share a single computation; the fill is
	// detached from the cancellation of whichever request started it
	fillCtx := context.WithoutCancel(ctx)
	v, _, shared := e.group.Do(key, func() (any, error) {
		resp := e.exec.Execute(fillCtx, q)
		if resp.Status < http.StatusInternalServerError {
			if b, err := json.Marshal(resp); err == nil {
				e.store.Set(fillCtx, key, b)
			}
		}
		return resp, nil
	})
	resp := v.(executor.Response)

	e.logger.DebugContext(mylog.WithOutcome(ctx, "miss"), "cache fill", "key", key, "status", resp.Status, "shared", shared)
	w.Header().Set(headerCache, cacheMiss)
	executor.Write(w, resp)
}
