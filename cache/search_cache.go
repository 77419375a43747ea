package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"moodmusic/model"
)

const searchKeyPrefix = "catalog:search:"

// DefaultSearchTTL applies when NewSearchCache is given a non-positive TTL.
const DefaultSearchTTL = 6 * time.Hour

// SearchCache stores catalog search results keyed by query and size.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache wraps client.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchCache{client: client, ttl: ttl}
}

// SearchKey builds the cache key. Queries differing only in case or
// whitespace share a key.
func SearchKey(query string, maxResults int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return fmt.Sprintf("%s%d:%s", searchKeyPrefix, maxResults, normalized)
}

// Get returns the cached tracks. The bool is false on a miss.
func (c *SearchCache) Get(ctx context.Context, query string, maxResults int) ([]model.Track, bool, error) {
	data, err := c.client.Get(ctx, SearchKey(query, maxResults)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to read search cache")
	}

	var tracks []model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode cached tracks")
	}
	return tracks, true, nil
}

// Set stores tracks for the configured TTL.
func (c *SearchCache) Set(ctx context.Context, query string, maxResults int, tracks []model.Track) error {
	data, err := json.Marshal(tracks)
	if err != nil {
		return errors.Wrap(err, "failed to encode tracks")
	}
	if err := c.client.Set(ctx, SearchKey(query, maxResults), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write search cache")
	}
	return nil
}

// Flush deletes every cached search and returns how many keys were removed.
func (c *SearchCache) Flush(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, searchKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, errors.Wrap(err, "failed to scan search cache")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.Wrap(err, "failed to delete cached searches")
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
