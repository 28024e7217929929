package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/debsaikia03/main-backend/internal/models"
)

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

// VideoRepository provides database access for video metadata and watch
// history.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository creates a new instance of VideoRepository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video record.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now

	const query = `INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
		VALUES (:id, :owner_id, :video_url, :thumbnail_url, :title, :description, :duration, :views, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// FindByID returns a video by identifier.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 LIMIT 1`
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	return &video, nil
}

// List returns videos matching the filter plus the total count.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	baseQuery := `FROM videos WHERE 1=1`
	var args []interface{}

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		baseQuery += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.PublishedOnly {
		baseQuery += " AND is_published"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", videoColumns, baseQuery, pageSize, offset)
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	return videos, total, nil
}

// Update updates the mutable metadata of a video.
func (r *VideoRepository) Update(ctx context.Context, id, title, description string) error {
	const query = `UPDATE videos SET title = $2, description = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, title, description, time.Now().UTC()); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// Delete removes a video record.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM videos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// SetPublished toggles a video's visibility.
func (r *VideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	const query = `UPDATE videos SET is_published = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, published, time.Now().UTC()); err != nil {
		return fmt.Errorf("set video published: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE videos SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// RecordWatch upserts a watch-history entry for the user and video.
func (r *VideoRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	const query = `INSERT INTO watch_history (user_id, video_id, watched_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at`
	if _, err := r.db.ExecContext(ctx, query, userID, videoID, time.Now().UTC()); err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// WatchHistory returns the user's watched videos, most recent first.
func (r *VideoRepository) WatchHistory(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at, h.watched_at
		FROM watch_history h JOIN videos v ON v.id = h.video_id
		WHERE h.user_id = $1 ORDER BY h.watched_at DESC LIMIT %d`, limit)

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(
			&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.VideoURL, &entry.Video.ThumbnailURL,
			&entry.Video.Title, &entry.Video.Description, &entry.Video.Duration, &entry.Video.Views,
			&entry.Video.IsPublished, &entry.Video.CreatedAt, &entry.Video.UpdatedAt, &entry.WatchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("watch history rows: %w", err)
	}
	return entries, nil
}
