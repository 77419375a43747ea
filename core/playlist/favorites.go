package playlist

import (
	"context"

	"moodmusic/model"
)

// UserFavorites binds the Favorites operations to one user so a playback
// session can like tracks without knowing who is signed in.
type UserFavorites struct {
	svc    *Service
	userID string
}

// FavoritesFor returns the like store of userID.
func (s *Service) FavoritesFor(userID string) *UserFavorites {
	return &UserFavorites{svc: s, userID: userID}
}

func (f *UserFavorites) IsLiked(ctx context.Context, videoID string) (bool, error) {
	return f.svc.IsLiked(ctx, f.userID, videoID)
}

func (f *UserFavorites) Like(ctx context.Context, track model.Track) error {
	_, err := f.svc.Like(ctx, f.userID, model.SongFromTrack(track))
	return err
}

func (f *UserFavorites) Unlike(ctx context.Context, videoID string) error {
	_, err := f.svc.Unlike(ctx, f.userID, videoID)
	return err
}
