package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// Source fetches the base card list from an upstream service.
type Source interface {
	FetchCards(ctx context.Context) ([]model.Card, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a fetched catalog is reused.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// Cache serves a Catalog and refreshes it from a Source when it expires.
// A failed refresh keeps serving the previous catalog if there is one.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time
	log logger.Logger

	mu        sync.Mutex
	current   *Catalog
	fetchedAt time.Time
}

// NewCache creates a Cache over src.
func NewCache(src Source, opts ...Option) *Cache {
	c := &Cache{
		src: src,
		ttl: 6 * time.Hour,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("catalog")
	}
	return c
}

// Get returns a fresh catalog, fetching it when absent or expired.
func (c *Cache) Get(ctx context.Context) (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.current, nil
	}
	if c.src == nil {
		return nil, ErrNoSource
	}

	cards, err := c.src.FetchCards(ctx)
	if err == nil && len(cards) == 0 {
		err = ErrEmptyCatalog
	}
	if err != nil {
		if c.current != nil {
			c.log.Warn(ctx, "catalog refresh failed, serving stale copy", logger.Error(err))
			return c.current, nil
		}
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	c.current = New(cards)
	c.fetchedAt = c.now()
	metrics.UpdateCatalogSize(c.current.Len())
	c.log.Info(ctx, "catalog refreshed", logger.Int("cards", c.current.Len()))
	return c.current, nil
}

// Invalidate drops the cached catalog.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}
