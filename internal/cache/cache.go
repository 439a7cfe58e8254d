// Package cache provides a process-local, TTL based read-through cache.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/octobees/bizdirectory/api/internal/metrics"
)

// DefaultSweepInterval is how often Start sweeps expired entries when no
// interval is given.
const DefaultSweepInterval = 5 * time.Minute

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is a keyed store whose entries expire after their own TTL.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	generation uint64

	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger

	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// Option configures optional dependencies.
type Option func(*Cache)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records hits, misses and evictions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty cache. The sweeper is not running until Start.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores data under key for ttl.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, storedAt: c.now(), ttl: ttl}
}

// Get returns the data stored under key unless it has outlived its TTL, in
// which case the entry is evicted and a miss is reported.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache) getLocked(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.metrics.CacheEvicted("expired", 1)
		return nil, false
	}
	return e.data, true
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup evicts every expired entry and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.metrics.CacheEvicted("expired", removed)
	return removed
}

// InvalidatePrefix evicts every key starting with prefix regardless of TTL.
// Loads that started before the call will not store their result.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.group.Forget(key)
			removed++
		}
	}
	c.metrics.CacheEvicted("invalidated", removed)
	return removed
}

// GetOrLoad returns the cached value for key or runs load once for all
// concurrent callers missing the same key, caching a successful result for
// ttl. The boolean reports whether the value came from the cache. Errors are
// not cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (any, error)) (any, bool, error) {
	if data, ok := c.Get(key); ok {
		c.metrics.CacheHit()
		return data, true, nil
	}
	c.metrics.CacheMiss()

	// the shared load outlives any single caller; each caller still stops
	// waiting when its own ctx ends
	loadCtx := context.WithoutCancel(ctx)
	flight := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		if data, ok := c.getLocked(key); ok {
			c.mu.Unlock()
			return data, nil
		}
		generation := c.generation
		c.mu.Unlock()

		data, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == generation {
			c.entries[key] = entry{data: data, storedAt: c.now(), ttl: ttl}
		}
		c.mu.Unlock()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val, false, nil
	}
}

// Start launches the background sweeper. Calling Start on a running cache is
// a no-op.
func (c *Cache) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.sweep(interval, c.stop, c.done)
}

// Stop halts the sweeper and waits for it to exit.
func (c *Cache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
	c.done = nil
}

func (c *Cache) sweep(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if removed := c.Cleanup(); removed > 0 {
				c.logger.Debug("cache sweep evicted expired entries", zap.Int("removed", removed))
			}
		}
	}
}
