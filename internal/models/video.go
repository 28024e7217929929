package models

import "time"

// Video represents uploaded video metadata stored in the videos table.
type Video struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	VideoURL     string    `db:"video_url" json:"video_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Duration     float64   `db:"duration" json:"duration"`
	Views        int64     `db:"views" json:"views"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PublishVideoRequest carries the metadata for a new upload. File URLs
// are resolved by the handler before the service sees the request.
type PublishVideoRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	Duration     float64 `json:"duration" validate:"gte=0"`
	VideoURL     string  `json:"-" validate:"required"`
	ThumbnailURL string  `json:"-" validate:"required"`
}

// UpdateVideoRequest carries the mutable metadata of a video.
type UpdateVideoRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// VideoFilter captures listing criteria.
type VideoFilter struct {
	OwnerID       string
	PublishedOnly bool
	Page          int
	PageSize      int
}

// WatchHistoryEntry is a watched video joined with when it was watched.
type WatchHistoryEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watched_at"`
}
