package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/runger/ghexplorer/internal/cache"
)

// CacheConfig configures Cached.
type CacheConfig struct {
	TTL      time.Duration
	Capacity int
	Logger   *slog.Logger
	// Options are passed through to the underlying caches.
	Options []cache.Option
}

// Cached memoizes successful provider results keyed by call arguments.
// Failures are never cached.
type Cached struct {
	inner    Provider
	searches *cache.TTL[[]Candidate]
	pages    *cache.TTL[Page]
	logger   *slog.Logger
}

// NewCached wraps inner.
func NewCached(inner Provider, cfg CacheConfig) *Cached {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		inner:    inner,
		searches: cache.NewTTL[[]Candidate](cfg.TTL, cfg.Capacity, cfg.Options...),
		pages:    cache.NewTTL[Page](cfg.TTL, cfg.Capacity, cfg.Options...),
		logger:   logger,
	}
}

// Name returns the wrapped provider's name.
func (c *Cached) Name() string { return c.inner.Name() }

// Available defers to the wrapped provider.
func (c *Cached) Available() bool { return c.inner.Available() }

// SearchByText serves from cache when possible.
func (c *Cached) SearchByText(ctx context.Context, query string, limit int) ([]Candidate, error) {
	key, err := cache.Key("search", query, limit)
	if err != nil {
		return c.inner.SearchByText(ctx, query, limit)
	}
	if v, ok := c.searches.Get(key); ok {
		c.logger.Debug("cache hit", "key", key)
		return v, nil
	}
	v, err := c.inner.SearchByText(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.searches.Set(key, v)
	return v, nil
}

// ListByParent serves from cache when possible.
func (c *Cached) ListByParent(ctx context.Context, parent Candidate, page, pageSize int) (Page, error) {
	key, err := cache.Key("list", parent.ID, parent.DisplayName, page, pageSize)
	if err != nil {
		return c.inner.ListByParent(ctx, parent, page, pageSize)
	}
	if v, ok := c.pages.Get(key); ok {
		c.logger.Debug("cache hit", "key", key)
		return v, nil
	}
	v, err := c.inner.ListByParent(ctx, parent, page, pageSize)
	if err != nil {
		return Page{}, err
	}
	c.pages.Set(key, v)
	return v, nil
}

// Stats returns search and listing cache counters.
func (c *Cached) Stats() (search, listing cache.Stats) {
	return c.searches.Stats(), c.pages.Stats()
}

var _ Provider = (*Cached)(nil)
