// Package market caches the commerce backend's market list and the locale
// routing configuration derived from it.
package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mattparisien/becoming-front/internal/domain"
)

const (
	// DefaultTTL is how long a fetched market list is served without refetching.
	DefaultTTL = time.Hour

	// staleRetry is how long a stale list is served after a failed refresh
	// before the source is tried again.
	staleRetry = 30 * time.Second
)

// Source loads markets from the commerce backend.
type Source interface {
	Markets(ctx context.Context) ([]domain.Market, error)
}

// Defaults shape the LocaleConfig built from the market list.
type Defaults struct {
	Country           string
	Locale            string
	BasePath          string
	BasePathOverrides map[string]string
}

// DefaultDefaults returns the storefront's built-in routing defaults.
func DefaultDefaults() Defaults {
	return Defaults{Country: "us", Locale: "en", BasePath: "/shop"}
}

type entry struct {
	markets   []domain.Market
	config    *domain.LocaleConfig
	fetchedAt time.Time
	// expiresAt is fetchedAt+ttl, or sooner for a stale entry being retried.
	expiresAt time.Time
}

// Cache serves the market list from memory, then the shared store, then the
// source. It is safe for concurrent use.
type Cache struct {
	source   Source
	store    Store
	ttl      time.Duration
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	entry *entry
	// gen is bumped by Invalidate; a refresh started under an older
	// generation neither caches nor stores its result.
	gen uint64
	// storeMu orders shared store writes against invalidation deletes.
	storeMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaults sets the routing defaults used by Config.
func WithDefaults(d Defaults) Option {
	return func(c *Cache) { c.defaults = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache. store may be nil. A non-positive ttl means DefaultTTL.
func NewCache(source Source, store Store, ttl time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		source:   source,
		store:    store,
		ttl:      ttl,
		defaults: DefaultDefaults(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Markets returns the market list. When the source fails it returns the last
// known list, or an empty one if there is none; it never returns an error for
// an upstream failure.
func (c *Cache) Markets(ctx context.Context) ([]domain.Market, error) {
	e, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.markets, nil
}

// Config returns the locale routing configuration for the current market list.
func (c *Cache) Config(ctx context.Context) (*domain.LocaleConfig, error) {
	e, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.config, nil
}

// Invalidate drops the in-memory entry and the shared copy so the next lookup
// reads the source.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	c.gen++
	c.entry = nil
	c.mu.Unlock()
	c.group.Forget(flightKey)
	invalidationsTotal.Inc()

	c.logger.InfoContext(ctx, "market cache invalidated")
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx)
}

const flightKey = "markets"

func (c *Cache) get(ctx context.Context) (*entry, error) {
	if e := c.fresh(); e != nil {
		lookupsTotal.WithLabelValues(resultHit).Inc()
		return e, nil
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.(*entry), nil
	}
}

func (c *Cache) fresh() *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry != nil && c.now().Before(c.entry.expiresAt) {
		return c.entry
	}
	return nil
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// refresh runs once per concurrent miss.
func (c *Cache) refresh(ctx context.Context) *entry {
	if e := c.fresh(); e != nil {
		lookupsTotal.WithLabelValues(resultHit).Inc()
		return e
	}
	gen := c.generation()

	if c.store != nil {
		snap, err := c.store.Load(ctx)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "market store read failed",
				slog.String("error", err.Error()),
			)
		case snap != nil && c.now().Sub(snap.FetchedAt) < c.ttl:
			lookupsTotal.WithLabelValues(resultStore).Inc()
			return c.set(gen, snap.Markets, snap.FetchedAt, snap.FetchedAt.Add(c.ttl))
		}
	}

	markets, err := c.source.Markets(ctx)
	if err != nil {
		return c.fallback(ctx, gen, err)
	}

	now := c.now()
	e := c.set(gen, markets, now, now.Add(c.ttl))
	lookupsTotal.WithLabelValues(resultSource).Inc()
	c.logger.InfoContext(ctx, "market list refreshed",
		slog.Int("markets", len(markets)),
		slog.Int("countries", len(e.config.Countries)),
	)

	if c.store != nil {
		c.save(ctx, gen, &Snapshot{Markets: markets, FetchedAt: now})
	}
	return e
}

// save writes snap to the shared store unless the cache was invalidated
// since gen.
func (c *Cache) save(ctx context.Context, gen uint64, snap *Snapshot) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	if c.generation() != gen {
		c.logger.InfoContext(ctx, "discarding market list fetched before invalidation")
		return
	}
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.WarnContext(ctx, "market store write failed",
			slog.String("error", err.Error()),
		)
	}
}

func (c *Cache) fallback(ctx context.Context, gen uint64, err error) *entry {
	c.mu.RLock()
	stale := c.entry
	c.mu.RUnlock()

	if stale != nil {
		lookupsTotal.WithLabelValues(resultStale).Inc()
		c.logger.WarnContext(ctx, "market refresh failed, serving stale list",
			slog.String("error", err.Error()),
			slog.Time("fetched_at", stale.fetchedAt),
		)
		return c.set(gen, stale.markets, stale.fetchedAt, c.now().Add(staleRetry))
	}

	lookupsTotal.WithLabelValues(resultEmpty).Inc()
	c.logger.ErrorContext(ctx, "market refresh failed with nothing cached, using defaults",
		slog.String("error", err.Error()),
	)
	return c.set(gen, nil, time.Time{}, c.now().Add(staleRetry))
}

// set caches a new entry when no invalidation happened since gen. The entry
// is returned either way for the callers of the refresh that built it.
func (c *Cache) set(gen uint64, markets []domain.Market, fetchedAt, expiresAt time.Time) *entry {
	if markets == nil {
		markets = []domain.Market{}
	}
	e := &entry{
		markets:   markets,
		config:    c.buildConfig(markets),
		fetchedAt: fetchedAt,
		expiresAt: expiresAt,
	}
	c.mu.Lock()
	if c.gen == gen {
		c.entry = e
	}
	c.mu.Unlock()
	return e
}

func (c *Cache) buildConfig(markets []domain.Market) *domain.LocaleConfig {
	d := c.defaults
	return domain.NewLocaleConfig(markets, d.Country, d.Locale, d.BasePath, d.BasePathOverrides)
}
