package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/repository"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCoverImage(ctx context.Context, id, url string) error
	GetChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error)
}

type watchHistoryRepository interface {
	WatchHistory(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error)
}

type mediaUploader interface {
	Upload(localPath string) (string, error)
	Remove(publicURL string) error
}

type channelCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UserService provides profile and channel use cases.
type UserService struct {
	users     userRepository
	history   watchHistoryRepository
	media     mediaUploader
	cache     channelCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance. metrics may be nil.
func NewUserService(users userRepository, history watchHistoryRepository, media mediaUploader, cache channelCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, history: history, media: media, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// GetByID returns a user without secret-bearing fields.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return sanitize(user), nil
}

// UpdateProfile changes full name and email.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "full name and email are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.users.UpdateProfile(ctx, userID, req.FullName, req.Email); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.invalidateChannel(ctx, user.Username)
	return s.GetByID(ctx, userID)
}

// UpdateAvatar stores the uploaded file and swaps the avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.User, error) {
	return s.updateMedia(ctx, userID, localPath, func(u *models.User) string { return u.Avatar }, s.users.UpdateAvatar)
}

// UpdateCoverImage stores the uploaded file and swaps the cover URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.User, error) {
	return s.updateMedia(ctx, userID, localPath, func(u *models.User) string { return u.CoverImage }, s.users.UpdateCoverImage)
}

// GetChannel returns the public channel profile, served from cache when
// fresh.
func (s *UserService) GetChannel(ctx context.Context, username string) (*models.ChannelProfile, error) {
	key := channelCacheKey(username)
	var cached models.ChannelProfile
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		if s.metrics != nil {
			s.metrics.CacheHit()
		}
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("channel cache lookup failed", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.CacheMiss()
	}

	profile, err := s.users.GetChannelProfile(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "channel does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load channel")
	}

	if err := s.cache.Set(ctx, key, profile, s.cacheTTL); err != nil {
		s.logger.Warn("channel cache write failed", zap.Error(err))
	}
	return profile, nil
}

// WatchHistory lists the user's watched videos, newest first.
func (s *UserService) WatchHistory(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	entries, err := s.history.WatchHistory(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load watch history")
	}
	return entries, nil
}

func (s *UserService) updateMedia(ctx context.Context, userID, localPath string, current func(*models.User) string, update func(context.Context, string, string) error) (*models.User, error) {
	if localPath == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	url, err := s.media.Upload(localPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store media file")
	}

	if err := update(ctx, userID, url); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update media url")
	}

	if old := current(user); old != "" {
		if err := s.media.Remove(old); err != nil {
			s.logger.Warn("failed to remove replaced media file", zap.String("url", old), zap.Error(err))
		}
	}

	s.invalidateChannel(ctx, user.Username)
	return s.GetByID(ctx, userID)
}

func (s *UserService) invalidateChannel(ctx context.Context, username string) {
	if err := s.cache.Delete(ctx, channelCacheKey(username)); err != nil {
		s.logger.Warn("channel cache invalidation failed", zap.Error(err))
	}
}

func channelCacheKey(username string) string {
	return fmt.Sprintf("channel:%s", username)
}
