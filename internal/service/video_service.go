package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/internal/models"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/jobs"
)

type videoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	FindByID(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	Update(ctx context.Context, id, title, description string) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// VideoService provides the video catalogue use cases.
type VideoService struct {
	videos     videoRepository
	media      mediaUploader
	engagement *jobs.Queue
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewVideoService constructs a VideoService instance. The engagement
// queue is optional; without it view counting happens on the request path.
func NewVideoService(videos videoRepository, media mediaUploader, engagement *jobs.Queue, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VideoService{videos: videos, media: media, engagement: engagement, validator: validate, logger: logger}
}

// Publish registers an uploaded video. File URLs are already resolved
// by the boundary layer through the media store.
func (s *VideoService) Publish(ctx context.Context, ownerID string, req models.PublishVideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, description, video file and thumbnail are required")
	}

	video := &models.Video{
		OwnerID:      ownerID,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		IsPublished:  true,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}
	return video, nil
}

// Get returns a video, bumping its view counter and recording the
// viewer's watch history. Unpublished videos are visible to their owner
// only.
func (s *VideoService) Get(ctx context.Context, viewerID, videoID string) (*models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}

	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
	}

	s.recordEngagement(ctx, viewerID, videoID)
	video.Views++
	return video, nil
}

// recordEngagement bumps the view counter and records watch history.
// With a queue attached the write happens off the request path; either
// way a failure never fails the read.
func (s *VideoService) recordEngagement(ctx context.Context, viewerID, videoID string) {
	if s.engagement != nil {
		err := s.engagement.Enqueue(jobs.Job{
			Type:    jobVideoWatched,
			Payload: watchEvent{ViewerID: viewerID, VideoID: videoID},
		})
		if err == nil {
			return
		}
		s.logger.Warn("failed to enqueue watch event", zap.String("video_id", videoID), zap.Error(err))
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		s.logger.Warn("failed to increment views", zap.String("video_id", videoID), zap.Error(err))
	}
	if err := s.videos.RecordWatch(ctx, viewerID, videoID); err != nil {
		s.logger.Warn("failed to record watch history", zap.String("video_id", videoID), zap.Error(err))
	}
}

// List returns videos matching the filter with the total count.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	videos, total, err := s.videos.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	return videos, total, nil
}

// Update edits a video's metadata. Only the owner may edit.
func (s *VideoService) Update(ctx context.Context, ownerID, videoID string, req models.UpdateVideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and description are required")
	}

	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.videos.Update(ctx, video.ID, req.Title, req.Description); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update video")
	}

	video.Title = req.Title
	video.Description = req.Description
	return video, nil
}

// Delete removes a video and its stored media files. Only the owner may
// delete.
func (s *VideoService) Delete(ctx context.Context, ownerID, videoID string) error {
	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete video")
	}

	for _, url := range []string{video.VideoURL, video.ThumbnailURL} {
		if err := s.media.Remove(url); err != nil {
			s.logger.Warn("failed to remove media file", zap.String("url", url), zap.Error(err))
		}
	}
	return nil
}

// TogglePublish flips a video's visibility. Only the owner may toggle.
func (s *VideoService) TogglePublish(ctx context.Context, ownerID, videoID string) (*models.Video, error) {
	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.videos.SetPublished(ctx, video.ID, !video.IsPublished); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle publish state")
	}

	video.IsPublished = !video.IsPublished
	return video, nil
}

func (s *VideoService) ownedVideo(ctx context.Context, ownerID, videoID string) (*models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if video.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "video does not belong to user")
	}
	return video, nil
}
