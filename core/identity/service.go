// Package identity manages accounts, sign-in and password resets.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"moodmusic/core/apperr"
	"moodmusic/core/auth"
	"moodmusic/logger"
	"moodmusic/model"
	"moodmusic/repository"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid Credentials"
	msgGoogleFailed       = "Google Sign-In Failed"
	msgDelegatedOnly      = "You use Google Login. Please cannot change password here."
	msgWrongPassword      = "Current password is incorrect"
	msgUserNotFound       = "User not found"
	msgInvalidReset       = "Invalid or expired token"

	// DefaultResetTTL is how long a reset token stays valid.
	DefaultResetTTL = 10 * time.Minute
)

// FavoritesProvisioner creates a user's Favorites playlist on demand.
type FavoritesProvisioner interface {
	EnsureFavorites(ctx context.Context, userID string) (*model.Playlist, error)
}

// Session is the result of a successful sign-in.
type Session struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// Service implements the account operations.
type Service struct {
	users     repository.UserRepository
	favorites FavoritesProvisioner
	tokens    *auth.TokenIssuer
	provider  IdentityProvider
	notifier  ResetNotifier
	resetTTL  time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithProvider sets the delegated identity provider.
func WithProvider(p IdentityProvider) Option {
	return func(s *Service) { s.provider = p }
}

// WithNotifier sets how reset tokens reach the user.
func WithNotifier(n ResetNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithResetTTL overrides DefaultResetTTL.
func WithResetTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(users repository.UserRepository, favorites FavoritesProvisioner, tokens *auth.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:     users,
		favorites: favorites,
		tokens:    tokens,
		notifier:  NewLogNotifier(""),
		resetTTL:  DefaultResetTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(msgUserExists)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Conflict(msgUserExists)
		}
		return nil, err
	}

	s.provisionFavorites(ctx, user.ID)
	return s.session(user)
}

// Login checks email and password. Every failure looks the same.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}
	return s.session(user)
}

// DelegatedLogin signs in with a provider access token, linking or creating
// the local account by email.
func (s *Service) DelegatedLogin(ctx context.Context, accessToken string) (*Session, error) {
	session, err := s.delegatedLogin(ctx, accessToken)
	if err != nil {
		logger.Warn("Google sign-in failed", logger.ErrorField(err))
		return nil, apperr.Unauthorized(msgGoogleFailed)
	}
	return session, nil
}

func (s *Service) delegatedLogin(ctx context.Context, accessToken string) (*Session, error) {
	if s.provider == nil {
		return nil, errors.New("no identity provider configured")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("empty access token")
	}

	ident, err := s.provider.Identify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if ident.Email == "" || ident.Subject == "" {
		return nil, errors.New("provider returned no email or subject")
	}

	user, err := s.users.GetByEmail(ctx, ident.Email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		if user.GoogleID == "" {
			if !ident.EmailVerified {
				return nil, errors.Newf("refusing to link unverified email %s", ident.Email)
			}
			user.GoogleID = ident.Subject
			if err := s.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return s.session(user)
	}

	user = &model.User{
		Username: ident.displayName(),
		Email:    ident.Email,
		GoogleID: ident.Subject,
		Avatar:   ident.Picture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.provisionFavorites(ctx, user.ID)
	return s.session(user)
}

// Me returns the account of userID.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return apperr.BadRequest(msgDelegatedOnly)
	}
	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return apperr.Unauthorized(msgWrongPassword)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// RequestPasswordReset stores a fresh reset token digest and hands the
// plaintext token to the notifier. The digest is cleared again if delivery
// fails.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound(msgUserNotFound)
	}

	token, digest, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expire := s.now().UTC().Add(s.resetTTL)
	user.ResetPasswordToken = digest
	user.ResetPasswordExpire = &expire
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.notifier.NotifyReset(ctx, user, token); err != nil {
		user.ClearReset()
		if clearErr := s.users.Update(ctx, user); clearErr != nil {
			logger.Error("Failed to clear undelivered reset token",
				logger.String("user_id", user.ID), logger.ErrorField(clearErr))
		}
		return errors.Wrap(err, "failed to deliver reset token")
	}
	return nil
}

// ResetPassword sets a new password using an unexpired reset token. The
// token cannot be reused.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), s.now().UTC())
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.BadRequest(msgInvalidReset)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ClearReset()
	return s.users.Update(ctx, user)
}

// ParseToken returns the user id carried by a session token.
func (s *Service) ParseToken(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// provisionFavorites runs after the user write; a failure here is repaired
// by the next like.
func (s *Service) provisionFavorites(ctx context.Context, userID string) {
	if s.favorites == nil {
		return
	}
	if _, err := s.favorites.EnsureFavorites(ctx, userID); err != nil {
		logger.Error("Failed to create Favorites playlist",
			logger.String("user_id", userID),
			logger.ErrorField(err))
	}
}

func (s *Service) session(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user.Public()}, nil
}
