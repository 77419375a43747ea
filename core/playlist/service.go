// Package playlist implements user playlists and the Favorites list.
package playlist

import (
	"context"
	"strings"
	"time"

	"moodmusic/core/apperr"
	"moodmusic/model"
	"moodmusic/repository"
)

const (
	msgNotFound      = "Playlist not found"
	msgNotAuthorized = "Not authorized"
	msgDuplicateSong = "Song already in playlist"
)

// Service applies ownership rules on top of the playlist repository.
type Service struct {
	repo repository.PlaylistRepository
	now  func() time.Time
}

// NewService creates a Service.
func NewService(repo repository.PlaylistRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock returns a copy of s that stamps songs using now.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

// Create stores an empty playlist. An empty name becomes "New Playlist".
func (s *Service) Create(ctx context.Context, owner, name string, isFavorites bool) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultPlaylistName
	}
	p := &model.Playlist{
		UserID:      owner,
		Name:        name,
		IsFavorites: isFavorites,
		Songs:       model.SongList{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the owner's playlists, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]*model.Playlist, error) {
	playlists, err := s.repo.ListByUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}
	return playlists, nil
}

// Rename changes the playlist name.
func (s *Service) Rename(ctx context.Context, id, name, requester string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("Playlist name is required")
	}

	p, err := s.owned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateName(ctx, id, name); err != nil {
		return nil, err
	}
	p.Name = name
	return p, nil
}

// Delete removes the playlist, Favorites included.
func (s *Service) Delete(ctx context.Context, id, requester string) error {
	if _, err := s.owned(ctx, id, requester); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddTrack puts song at the front of the playlist and returns the new list.
func (s *Service) AddTrack(ctx context.Context, id string, song model.Song, requester string) (model.SongList, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}
	song.AddedAt = s.now().UTC()

	p, err := s.repo.MutateSongs(ctx, id, func(p *model.Playlist) (model.SongList, error) {
		if !p.OwnedBy(requester) {
			return nil, apperr.Forbidden(msgNotAuthorized)
		}
		if p.Songs.Contains(song.VideoID) {
			return nil, apperr.Conflict(msgDuplicateSong)
		}
		return p.Songs.Prepend(song), nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	return p.Songs, nil
}

// RemoveTrack drops every entry for videoID. Removing an absent song succeeds.
func (s *Service) RemoveTrack(ctx context.Context, id, videoID, requester string) (model.SongList, error) {
	p, err := s.repo.MutateSongs(ctx, id, func(p *model.Playlist) (model.SongList, error) {
		if !p.OwnedBy(requester) {
			return nil, apperr.Forbidden(msgNotAuthorized)
		}
		return p.Songs.Without(videoID), nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	return p.Songs, nil
}

// EnsureFavorites returns the owner's Favorites playlist, creating it once.
func (s *Service) EnsureFavorites(ctx context.Context, owner string) (*model.Playlist, error) {
	return s.repo.EnsureFavorites(ctx, owner)
}

// Favorites returns the owner's Favorites playlist.
func (s *Service) Favorites(ctx context.Context, owner string) (*model.Playlist, error) {
	return s.EnsureFavorites(ctx, owner)
}

// Like adds song to Favorites. Liking a song twice is not an error.
func (s *Service) Like(ctx context.Context, owner string, song model.Song) (model.SongList, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}
	fav, err := s.EnsureFavorites(ctx, owner)
	if err != nil {
		return nil, err
	}
	song.AddedAt = s.now().UTC()

	p, err := s.repo.MutateSongs(ctx, fav.ID, func(p *model.Playlist) (model.SongList, error) {
		if p.Songs.Contains(song.VideoID) {
			return p.Songs, nil
		}
		return p.Songs.Prepend(song), nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	return p.Songs, nil
}

// Unlike removes videoID from Favorites.
func (s *Service) Unlike(ctx context.Context, owner, videoID string) (model.SongList, error) {
	fav, err := s.EnsureFavorites(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.RemoveTrack(ctx, fav.ID, videoID, owner)
}

// IsLiked reports whether videoID is in the owner's Favorites.
func (s *Service) IsLiked(ctx context.Context, owner, videoID string) (bool, error) {
	fav, err := s.repo.FindFavorites(ctx, owner)
	if err != nil {
		return false, err
	}
	if fav == nil {
		return false, nil
	}
	return fav.Songs.Contains(videoID), nil
}

func (s *Service) owned(ctx context.Context, id, requester string) (*model.Playlist, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	if !p.OwnedBy(requester) {
		return nil, apperr.Forbidden(msgNotAuthorized)
	}
	return p, nil
}

func validateSong(song model.Song) error {
	if strings.TrimSpace(song.VideoID) == "" {
		return apperr.BadRequest("videoId is required")
	}
	if strings.TrimSpace(song.Title) == "" {
		return apperr.BadRequest("title is required")
	}
	return nil
}
