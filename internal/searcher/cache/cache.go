// Package cache provides per-term score caches for a query run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/resilience"
)

const keyPrefix = "termscore:"

// Memory is a run-local cache. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	scores map[string]map[int]float64
}

func NewMemory() *Memory {
	return &Memory{scores: make(map[string]map[int]float64)}
}

func (m *Memory) Get(_ context.Context, term string) (map[int]float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[term]
	return s, ok
}

func (m *Memory) Set(_ context.Context, term string, scores map[int]float64) {
	m.mu.Lock()
	m.scores[term] = scores
	m.mu.Unlock()
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scores)
}

// KV is the subset of the Redis client the cache uses.
type KV interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Redis shares term scores across runs against the same index, model and
// parameters. Failures degrade to misses; after repeated failures the
// breaker skips Redis entirely until it recovers.
type Redis struct {
	kv        KV
	namespace string
	ttl       time.Duration
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger
}

func NewRedis(kv KV, namespace string, ttl time.Duration) *Redis {
	return &Redis{
		kv:        kv,
		namespace: namespace,
		ttl:       ttl,
		breaker:   resilience.NewCircuitBreaker("term-cache", resilience.CircuitBreakerConfig{}),
		logger:    slog.Default().With("component", "term-cache"),
	}
}

// Namespace identifies one index build scored under one model setting.
func Namespace(meta *store.Meta, model ranker.Model, p ranker.Params) string {
	raw := fmt.Sprintf("%s|%d|%d|%s|%g|%g|%g",
		meta.BuiltAt.UTC().Format(time.RFC3339Nano), meta.DocCount(), meta.ItemCount,
		model, p.K1, p.B, p.K3)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash[:12])
}

func (r *Redis) Get(ctx context.Context, term string) (map[int]float64, bool) {
	key := r.key(term)
	var data []byte
	err := r.breaker.Execute(func() error {
		v, err := r.kv.GetBytes(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		r.logFailure("cache get failed", key, err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var scores map[int]float64
	if err := json.Unmarshal(data, &scores); err != nil {
		r.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return scores, true
}

func (r *Redis) Set(ctx context.Context, term string, scores map[int]float64) {
	key := r.key(term)
	data, err := json.Marshal(scores)
	if err != nil {
		r.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = r.breaker.Execute(func() error {
		return r.kv.Set(ctx, key, data, r.ttl)
	})
	if err != nil {
		r.logFailure("cache set failed", key, err)
	}
}

func (r *Redis) logFailure(msg, key string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		r.logger.Debug(msg, "key", key, "error", err)
		return
	}
	r.logger.Error(msg, "key", key, "error", err)
}

// Invalidate removes every entry of this namespace.
func (r *Redis) Invalidate(ctx context.Context) error {
	deleted, err := r.kv.FlushByPattern(ctx, keyPrefix+r.namespace+":*")
	if err != nil {
		return fmt.Errorf("invalidating term cache: %w", err)
	}
	r.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (r *Redis) key(term string) string {
	return keyPrefix + r.namespace + ":" + term
}

// Instrumented counts hits and misses of the wrapped cache.
type Instrumented struct {
	next    ranker.TermCache
	metrics *metrics.Metrics
}

func Instrument(next ranker.TermCache, m *metrics.Metrics) ranker.TermCache {
	if next == nil || m == nil {
		return next
	}
	return &Instrumented{next: next, metrics: m}
}

func (c *Instrumented) Get(ctx context.Context, term string) (map[int]float64, bool) {
	s, ok := c.next.Get(ctx, term)
	if ok {
		c.metrics.CacheHitsTotal.Inc()
	} else {
		c.metrics.CacheMissesTotal.Inc()
	}
	return s, ok
}

func (c *Instrumented) Set(ctx context.Context, term string, scores map[int]float64) {
	c.next.Set(ctx, term, scores)
}
