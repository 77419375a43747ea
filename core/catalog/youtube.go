package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"moodmusic/model"
)

const (
	musicCategoryID = "10"
	maxPageSize     = 50
)

// YouTube searches the YouTube Data API v3.
type YouTube struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewYouTube creates a client authenticated by apiKey. A positive
// ratePerSecond limits outbound calls.
func NewYouTube(ctx context.Context, apiKey string, ratePerSecond float64, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create YouTube service")
	}

	y := &YouTube{service: service}
	if ratePerSecond > 0 {
		burst := int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
		y.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return y, nil
}

// Search lists music videos for query.
func (y *YouTube) Search(ctx context.Context, query string, maxResults int) ([]model.Track, error) {
	if maxResults <= 0 {
		return []model.Track{}, nil
	}
	if maxResults > maxPageSize {
		maxResults = maxPageSize
	}

	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	resp, err := y.service.Search.List([]string{"snippet"}).
		Q(query + " music").
		Type("video").
		VideoCategoryId(musicCategoryID).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "youtube search %q", query)
	}

	tracks := make([]model.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		tracks = append(tracks, model.Track{
			VideoID:   item.Id.VideoId,
			Title:     item.Snippet.Title,
			Thumbnail: bestThumbnail(item.Snippet.Thumbnails),
			Channel:   item.Snippet.ChannelTitle,
		})
		if len(tracks) == maxResults {
			break
		}
	}
	return tracks, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
