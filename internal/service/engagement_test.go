package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsaikia03/main-backend/pkg/jobs"
)

// lockedEngagementRepo records calls under a mutex so the queue workers
// can write while the test polls.
type lockedEngagementRepo struct {
	mu      sync.Mutex
	views   map[string]int
	watched map[string]string
}

func newLockedEngagementRepo() *lockedEngagementRepo {
	return &lockedEngagementRepo{views: map[string]int{}, watched: map[string]string{}}
}

func (r *lockedEngagementRepo) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id]++
	return nil
}

func (r *lockedEngagementRepo) RecordWatch(ctx context.Context, userID, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watched[userID] = videoID
	return nil
}

func (r *lockedEngagementRepo) snapshot() (map[string]int, map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := map[string]int{}
	for k, v := range r.views {
		views[k] = v
	}
	watched := map[string]string{}
	for k, v := range r.watched {
		watched[k] = v
	}
	return views, watched
}

func TestEngagementQueueRecordsWatch(t *testing.T) {
	repo := newLockedEngagementRepo()
	q := NewEngagementQueue(repo, nil)
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(jobs.Job{
		Type:    jobVideoWatched,
		Payload: watchEvent{ViewerID: "u1", VideoID: "v1"},
	}))

	assert.Eventually(t, func() bool {
		views, watched := repo.snapshot()
		return views["v1"] == 1 && watched["u1"] == "v1"
	}, time.Second, 10*time.Millisecond)
}

func TestEngagementQueueRejectsBadPayload(t *testing.T) {
	repo := newLockedEngagementRepo()
	q := NewEngagementQueue(repo, nil)
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(jobs.Job{Type: jobVideoWatched, Payload: "not-an-event"}))

	// a malformed payload never reaches the store
	time.Sleep(50 * time.Millisecond)
	views, watched := repo.snapshot()
	assert.Empty(t, views)
	assert.Empty(t, watched)
}
