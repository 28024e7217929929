package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/pkg/jobs"
)

// engagement job types.
const (
	jobVideoWatched = "video.watched"
)

// watchEvent is the payload recorded when a viewer opens a video.
type watchEvent struct {
	ViewerID string
	VideoID  string
}

type engagementRepository interface {
	IncrementViews(ctx context.Context, id string) error
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// NewEngagementQueue builds the background queue that bumps view
// counters and records watch history off the request path.
func NewEngagementQueue(videos engagementRepository, logger *zap.Logger) *jobs.Queue {
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(watchEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for %s", job.Payload, job.Type)
		}
		if err := videos.IncrementViews(ctx, event.VideoID); err != nil {
			return fmt.Errorf("increment views: %w", err)
		}
		if err := videos.RecordWatch(ctx, event.ViewerID, event.VideoID); err != nil {
			return fmt.Errorf("record watch: %w", err)
		}
		return nil
	}

	return jobs.NewQueue("engagement", handler, jobs.QueueConfig{
		Workers: 2,
		Logger:  logger,
	})
}
