package repository

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"moodmusic/model"
)

// MixRepository stores saved recommendation mixes.
type MixRepository interface {
	Create(ctx context.Context, mix *model.SavedMix) error
	ListByUser(ctx context.Context, userID string) ([]*model.SavedMix, error)
}

type gormMixRepository struct {
	db *gorm.DB
}

// NewGormMixRepository creates a MixRepository backed by GORM.
func NewGormMixRepository(db *gorm.DB) MixRepository {
	return &gormMixRepository{db: db}
}

func (r *gormMixRepository) Create(ctx context.Context, mix *model.SavedMix) error {
	if err := r.db.WithContext(ctx).Create(mix).Error; err != nil {
		return errors.Wrap(err, "failed to save mix")
	}
	return nil
}

func (r *gormMixRepository) ListByUser(ctx context.Context, userID string) ([]*model.SavedMix, error) {
	var mixes []*model.SavedMix
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&mixes).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list saved mixes")
	}
	return mixes, nil
}
