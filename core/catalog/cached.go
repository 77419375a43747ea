package catalog

import (
	"context"

	"moodmusic/cache"
	"moodmusic/logger"
	"moodmusic/model"
)

// Cached serves repeated searches from Redis. Cache failures fall through to
// the wrapped client.
type Cached struct {
	next  Client
	cache *cache.SearchCache
}

// NewCached wraps next with sc.
func NewCached(next Client, sc *cache.SearchCache) *Cached {
	return &Cached{next: next, cache: sc}
}

func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]model.Track, error) {
	tracks, ok, err := c.cache.Get(ctx, query, maxResults)
	if err != nil {
		logger.Warn("Search cache read failed", logger.String("query", query), logger.ErrorField(err))
	} else if ok {
		return tracks, nil
	}

	tracks, err = c.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(tracks) > 0 {
		if err := c.cache.Set(ctx, query, maxResults, tracks); err != nil {
			logger.Warn("Search cache write failed", logger.String("query", query), logger.ErrorField(err))
		}
	}
	return tracks, nil
}
