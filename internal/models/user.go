package models

import "time"

// User represents a registered account stored in the users table.
// PasswordHash and RefreshToken never serialize to JSON.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Avatar       string    `db:"avatar" json:"avatar"`
	CoverImage   string    `db:"cover_image" json:"cover_image,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ChannelProfile is the public view of a user's channel.
type ChannelProfile struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	FullName   string    `db:"full_name" json:"full_name"`
	Avatar     string    `db:"avatar" json:"avatar"`
	CoverImage string    `db:"cover_image" json:"cover_image,omitempty"`
	VideoCount int       `db:"video_count" json:"video_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}
