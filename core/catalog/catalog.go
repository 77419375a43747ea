// Package catalog searches the video catalog and normalizes results into
// model.Track records.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"moodmusic/cache"
	"moodmusic/config"
	"moodmusic/logger"
	"moodmusic/model"
)

const (
	placeholderKey       = "YOUR_YOUTUBE_API_KEY"
	PlaceholderThumbnail = "https://via.placeholder.com/320x180.png?text=Music+Video"
	PlaceholderChannel   = "Demo Channel"
)

// Client performs one catalog search. Implementations return at most
// maxResults tracks in provider order.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Track, error)
}

// HasCredential reports whether apiKey looks like a real provider key.
func HasCredential(apiKey string) bool {
	return apiKey != "" && !strings.Contains(apiKey, placeholderKey)
}

// New picks the client for cfg: placeholder data without a key, otherwise
// the YouTube client, cached when sc is non-nil.
func New(ctx context.Context, cfg config.YouTubeConfig, sc *cache.SearchCache) (Client, error) {
	if !HasCredential(cfg.APIKey) {
		logger.Warn("No YouTube API key configured, serving placeholder tracks")
		return Placeholder{}, nil
	}

	yt, err := NewYouTube(ctx, cfg.APIKey, cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return yt, nil
	}
	return NewCached(yt, sc), nil
}

// Placeholder returns deterministic demo tracks.
type Placeholder struct{}

// Search never fails.
func (Placeholder) Search(_ context.Context, query string, maxResults int) ([]model.Track, error) {
	if maxResults < 0 {
		maxResults = 0
	}
	tracks := make([]model.Track, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		tracks = append(tracks, model.Track{
			VideoID:   fmt.Sprintf("dummy_%d", i),
			Title:     fmt.Sprintf("[Demo] %s Song %d", query, i+1),
			Thumbnail: PlaceholderThumbnail,
			Channel:   PlaceholderChannel,
		})
	}
	return tracks, nil
}

// Adapter hides provider failures from callers that only want results.
type Adapter struct {
	client Client
}

// NewAdapter wraps client.
func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

// Client returns the wrapped client.
func (a *Adapter) Client() Client {
	return a.client
}

// Search returns an empty list when the provider fails.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) []model.Track {
	tracks, err := a.client.Search(ctx, query, maxResults)
	if err != nil {
		logger.Warn("Catalog search failed",
			logger.String("query", query),
			logger.Int("max", maxResults),
			logger.ErrorField(err))
		return []model.Track{}
	}
	if tracks == nil {
		return []model.Track{}
	}
	return tracks
}
