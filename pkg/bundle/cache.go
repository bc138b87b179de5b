// Package bundle caches assembled lesson bundles on the client side so
// repeated navigation between days does not refetch over the network.
package bundle

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lessoncast/lessoncast/pkg/lesson"
	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/metrics"
)

const (
	// DefaultTTL is how long a bundle stays fresh.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries caps the cache before eviction kicks in.
	DefaultMaxEntries = 20
	// evictBatch is how many of the oldest entries go at once.
	evictBatch = 10
)

// Bundle is one cached lesson page: the lesson plus its ordered
// playable (or transcript) segments.
type Bundle struct {
	Lesson    lesson.Lesson
	Segments  []lesson.Segment
	FetchedAt time.Time
}

// Loader fetches a lesson and its segments on a cache miss.
type Loader func(ctx context.Context, programID string, day int) (lesson.Lesson, []lesson.Segment, error)

type cacheKey struct {
	programID string
	day       int
}

// Cache is a TTL-bounded bundle cache keyed by (program, day). One
// cache per client session; there is no cross-session invalidation.
// The clock is injectable so TTL expiry is testable.
type Cache struct {
	mu         sync.Mutex
	entries    map[cacheKey]Bundle
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	obs        metrics.Observer
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries overrides the entry cap.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock injects a clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver wires a metrics observer.
func WithObserver(obs metrics.Observer) Option {
	return func(c *Cache) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// New creates a bundle cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[cacheKey]Bundle),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		obs:        metrics.NoopObserver{},
		logger:     logging.NewComponentLogger(slog.Default(), "bundle_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoad returns the cached bundle when present and fresh, and
// otherwise invokes the loader and caches the result. A stale entry is
// a silent miss, never an error.
func (c *Cache) GetOrLoad(ctx context.Context, programID string, day int, load Loader) (Bundle, error) {
	key := cacheKey{programID: programID, day: day}

	c.mu.Lock()
	entry, ok := c.entries[key]
	fresh := ok && c.now().Sub(entry.FetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		c.obs.RecordEvent(metrics.Event(metrics.EventCacheHit, 1, map[string]string{"program_id": programID}))
		return entry, nil
	}
	c.obs.RecordEvent(metrics.Event(metrics.EventCacheMiss, 1, map[string]string{"program_id": programID}))

	lsn, segments, err := load(ctx, programID, day)
	if err != nil {
		return Bundle{}, err
	}
	fetched := Bundle{Lesson: lsn, Segments: segments, FetchedAt: c.now()}

	c.mu.Lock()
	c.entries[key] = fetched
	c.evictLocked()
	c.mu.Unlock()

	return fetched, nil
}

// Invalidate drops the entry for a (program, day) pair, e.g. after an
// explicit regenerate.
func (c *Cache) Invalidate(programID string, day int) {
	c.mu.Lock()
	delete(c.entries, cacheKey{programID: programID, day: day})
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked removes the oldest entries by FetchedAt once the cache
// exceeds its cap. Caller holds the lock.
func (c *Cache) evictLocked() {
	if len(c.entries) <= c.maxEntries {
		return
	}
	type aged struct {
		key cacheKey
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, v := range c.entries {
		all = append(all, aged{key: k, at: v.FetchedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	n := evictBatch
	if n > len(all) {
		n = len(all)
	}
	for _, victim := range all[:n] {
		delete(c.entries, victim.key)
	}
	c.logger.Debug("cache evicted", slog.Int("removed", n), slog.Int("remaining", len(c.entries)))
}
