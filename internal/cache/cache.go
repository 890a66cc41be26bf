// Package cache stores rendered query responses in a local LRU backed by
// an optional shared Redis tier.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/airport-proximity/internal/cache/local"
	"github.com/mohammed-shakir/airport-proximity/internal/core/observability"
)

// Remote is the shared tier; *redisstore.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

type Tiered struct {
	local     *local.Cache
	remote    Remote
	ttl       time.Duration
	opTimeout time.Duration
	logger    *slog.Logger
}

func NewTiered(l *local.Cache, remote Remote, ttl, opTimeout time.Duration, logger *slog.Logger) *Tiered {
	return &Tiered{local: l, remote: remote, ttl: ttl, opTimeout: opTimeout, logger: logger}
}

// returns context with timeout if set
func (t *Tiered) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.opTimeout)
}

// Get checks the local tier, then the remote one. Remote failures are
// logged and reported as a miss.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if b, ok := t.local.Get(key); ok {
		observability.IncCacheHit("local")
		return b, true
	}
	observability.IncCacheMiss("local")

	if t.remote == nil {
		return nil, false
	}
	cctx, cancel := t.withTimeout(ctx)
	defer cancel()
	b, ok, err := t.remote.Get(cctx, key)
	if err != nil {
		t.logger.WarnContext(ctx, "remote cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		observability.IncCacheMiss("redis")
		return nil, false
	}
	observability.IncCacheHit("redis")
	t.local.Add(key, b)
	return b, true
}

// Set writes both tiers. A remote failure does not fail the request.
func (t *Tiered) Set(ctx context.Context, key string, val []byte) {
	t.local.Add(key, val)
	if t.remote == nil {
		return
	}
	cctx, cancel := t.withTimeout(ctx)
	defer cancel()
	if err := t.remote.Set(cctx, key, val, t.ttl); err != nil {
		t.logger.WarnContext(ctx, "remote cache set failed", "key", key, "err", err)
	}
}

// Remove drops key from both tiers.
func (t *Tiered) Remove(ctx context.Context, key string) {
	t.local.Remove(key)
	if t.remote == nil {
		return
	}
	cctx, cancel := t.withTimeout(ctx)
	defer cancel()
	if err := t.remote.Del(cctx, key); err != nil {
		t.logger.WarnContext(ctx, "remote cache delete failed", "key", key, "err", err)
	}
}

func (t *Tiered) HasRemote() bool { return t.remote != nil }

// Ping checks the remote tier; a local-only cache is always healthy.
func (t *Tiered) Ping(ctx context.Context) error {
	if t.remote == nil {
		return nil
	}
	cctx, cancel := t.withTimeout(ctx)
	defer cancel()
	return t.remote.Ping(cctx)
}
