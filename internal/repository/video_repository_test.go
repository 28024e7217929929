package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsaikia03/main-backend/internal/models"
)

func TestCreateVideo(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec("INSERT INTO videos").WillReturnResult(sqlmock.NewResult(1, 1))

	video := &models.Video{OwnerID: "u1", VideoURL: "/media/v.mp4", ThumbnailURL: "/media/t.jpg", Title: "First", Description: "d", IsPublished: true}
	require.NoError(t, repo.Create(context.Background(), video))
	assert.NotEmpty(t, video.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVideosByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "video_url", "thumbnail_url", "title", "description", "duration", "views", "is_published", "created_at", "updated_at"}).
		AddRow("v1", "u1", "/media/v.mp4", "/media/t.jpg", "First", "d", 12.5, 7, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM videos WHERE 1=1 AND owner_id = $1 AND is_published ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM videos WHERE 1=1 AND owner_id = $1 AND is_published")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	videos, total, err := repo.List(context.Background(), models.VideoFilter{OwnerID: "u1", PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementViews(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET views = views + 1 WHERE id = $1")).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementViews(context.Background(), "v1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWatchUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	mock.ExpectExec("INSERT INTO watch_history").
		WithArgs("u1", "v1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordWatch(context.Background(), "u1", "v1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVideoRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "video_url", "thumbnail_url", "title", "description", "duration", "views", "is_published", "created_at", "updated_at", "watched_at"}).
		AddRow("v1", "u2", "/media/v.mp4", "/media/t.jpg", "First", "d", 12.5, 7, true, now, now, now)
	mock.ExpectQuery("FROM watch_history h JOIN videos v").WithArgs("u1").WillReturnRows(rows)

	entries, err := repo.WatchHistory(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "v1", entries[0].Video.ID)
	assert.Equal(t, now, entries[0].WatchedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
