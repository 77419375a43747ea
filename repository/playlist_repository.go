package repository

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moodmusic/model"
)

// SongsMutation computes a playlist's new song list. Returning an error
// aborts the write.
type SongsMutation func(p *model.Playlist) (model.SongList, error)

// PlaylistRepository defines playlist persistence. Lookups return nil, nil
// when no row matches.
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Playlist, error)
	FindFavorites(ctx context.Context, userID string) (*model.Playlist, error)
	// EnsureFavorites returns the user's Favorites playlist, creating it when
	// missing. Concurrent callers for one user observe a single playlist.
	EnsureFavorites(ctx context.Context, userID string) (*model.Playlist, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	// MutateSongs loads the playlist under a row lock, applies fn and stores
	// the result in the same transaction. It returns nil, nil if id is unknown.
	MutateSongs(ctx context.Context, id string, fn SongsMutation) (*model.Playlist, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a PlaylistRepository backed by GORM.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) Create(ctx context.Context, p *model.Playlist) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}
	return nil
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get playlist %s", id)
	}
	return &p, nil
}

// ListByUser returns the user's playlists, newest first.
func (r *gormPlaylistRepository) ListByUser(ctx context.Context, userID string) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	return playlists, nil
}

// FindFavorites returns the oldest Favorites-flagged playlist of the user.
func (r *gormPlaylistRepository) FindFavorites(ctx context.Context, userID string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_favorites = ?", userID, true).
		Order("created_at ASC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find favorites playlist")
	}
	return &p, nil
}

func (r *gormPlaylistRepository) EnsureFavorites(ctx context.Context, userID string) (*model.Playlist, error) {
	var result model.Playlist
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the owner's user row serializes creation
		var owners []model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", userID).
			Find(&owners).Error; err != nil {
			return err
		}

		err := tx.Where("user_id = ? AND is_favorites = ?", userID, true).
			Order("created_at ASC").
			First(&result).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		result = model.Playlist{UserID: userID, Name: model.FavoritesName, IsFavorites: true}
		return tx.Create(&result).Error
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to ensure favorites for user %s", userID)
	}
	return &result, nil
}

func (r *gormPlaylistRepository) UpdateName(ctx context.Context, id, name string) error {
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", id).
		Update("name", name).Error
	if err != nil {
		return errors.Wrapf(err, "failed to rename playlist %s", id)
	}
	return nil
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Playlist{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete playlist %s", id)
	}
	return nil
}

func (r *gormPlaylistRepository) MutateSongs(ctx context.Context, id string, fn SongsMutation) (*model.Playlist, error) {
	var result *model.Playlist
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Playlist
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		songs, err := fn(&p)
		if err != nil {
			return err
		}
		if songs == nil {
			songs = model.SongList{}
		}

		if err := tx.Model(&model.Playlist{}).Where("id = ?", id).Update("songs", songs).Error; err != nil {
			return err
		}
		p.Songs = songs
		result = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
