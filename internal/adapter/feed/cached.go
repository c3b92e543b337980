package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// CachedFetcher serves feed documents from a Store, falling through to the
// inner Fetcher on a miss. Concurrent misses for the same URL share one
// upstream request. Store errors degrade to an uncached fetch.
type CachedFetcher struct {
	inner   Fetcher
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedFetcher wraps inner. A non-positive ttl disables caching.
func NewCachedFetcher(inner Fetcher, store Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.ttl <= 0 || c.store == nil {
		return c.inner.Fetch(ctx, url)
	}

	key := cacheKey(url)
	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("feed cache read failed", "url", url, "error", err)
	}
	if ok {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.FeedCache.WithLabelValues("miss").Inc()

	// The shared fetch outlives any single caller; each caller stops waiting
	// on its own context. The inner client's timeout bounds the request.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		body, err := c.inner.Fetch(shared, url)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(shared, key, body, c.ttl); err != nil {
			c.logger.Warn("feed cache write failed", "url", url, "error", err)
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func cacheKey(url string) string {
	return "quakemap:feed:" + url
}
