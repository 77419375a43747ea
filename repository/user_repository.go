package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"moodmusic/db"
	"moodmusic/model"
)

// ErrDuplicateUser is returned when the email is already registered.
var ErrDuplicateUser = errors.New("user already exists")

// UserRepository defines the interface for user data operations. Lookups
// return nil, nil when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, digest string, now time.Time) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a UserRepository backed by GORM.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create inserts a new user.
func (r *gormUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return errors.Mark(errors.Wrapf(err, "create user %s", user.Email), ErrDuplicateUser)
		}
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email address.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByResetToken finds the user holding an unexpired reset token digest.
func (r *gormUserRepository) GetByResetToken(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	if digest == "" {
		return nil, nil
	}
	return r.first(ctx, "reset_password_token = ? AND reset_password_expire > ?", digest, now)
}

// Update writes every column of user.
func (r *gormUserRepository) Update(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return errors.Wrapf(err, "failed to update user %s", user.ID)
	}
	return nil
}

func (r *gormUserRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return &user, nil
}
