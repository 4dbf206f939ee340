// Package cache implements the cache-aside store used by the domain services.
// Values are JSON encoded before they reach a Store, so a cached value never
// aliases memory owned by a caller.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/pkg/metrics"
)

// Store is a byte-oriented key/value backend with per-entry TTLs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Aside adapts a Store to ports.Cache. Backend errors are logged and counted,
// then treated as a miss or a no-op.
type Aside struct {
	store  Store
	prefix string
	log    zerolog.Logger
}

// New wraps store. prefix namespaces every key, letting several deployments
// share one Redis database.
func New(store Store, prefix string, log zerolog.Logger) *Aside {
	return &Aside{store: store, prefix: prefix, log: log}
}

func (a *Aside) Get(ctx context.Context, key string, dest any) bool {
	b, ok, err := a.store.Get(ctx, a.prefix+key)
	if err != nil {
		a.fail("get", key, err)
		return false
	}
	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		a.fail("decode", key, err)
		return false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return true
}

func (a *Aside) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		a.fail("encode", key, err)
		return
	}
	if err := a.store.Set(ctx, a.prefix+key, b, ttl); err != nil {
		a.fail("set", key, err)
	}
}

func (a *Aside) Remove(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = a.prefix + k
	}
	if err := a.store.Delete(ctx, full...); err != nil {
		a.fail("remove", keys[0], err)
	}
}

func (a *Aside) RemoveByPrefix(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		if err := a.store.DeletePrefix(ctx, a.prefix+p); err != nil {
			a.fail("remove_prefix", p, err)
		}
	}
}

func (a *Aside) fail(op, key string, err error) {
	metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	a.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache operation failed")
}
