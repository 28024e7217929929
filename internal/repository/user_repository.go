package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/debsaikia03/main-backend/internal/models"
)

// ErrDuplicateUser signals a username/email unique-constraint violation.
// The constraint, not any pre-check, is the real uniqueness guarantee.
var ErrDuplicateUser = errors.New("username or email already exists")

// ErrRefreshTokenMismatch signals that a conditional refresh-token
// rotation found a different stored value than the one presented.
var ErrRefreshTokenMismatch = errors.New("stored refresh token mismatch")

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, refresh_token, created_at, updated_at`

// UserRepository provides database access for user accounts and their
// session state.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Username and email collisions surface as
// ErrDuplicateUser via the unique constraints.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, refresh_token, created_at, updated_at)
		VALUES (:id, :username, :email, :full_name, :avatar, :cover_image, :password_hash, :refresh_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateUser
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByUsernameOrEmail returns the user whose username or email equals
// the given value (case-normalized).
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, value string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(value)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username or email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// SetRefreshToken stores (or clears, when nil) the single currently
// valid refresh token for the user. This single-field write is the only
// session-invalidation mechanism.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	const query = `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken swaps the stored refresh token for a new one in a
// single conditional update, so compare-and-overwrite is atomic per
// user. Zero affected rows means the presented token has already been
// superseded (or the session was logged out) and rotation must fail.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	const query = `UPDATE users SET refresh_token = $3, updated_at = $4 WHERE id = $1 AND refresh_token = $2`
	res, err := r.db.ExecContext(ctx, query, id, current, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if affected == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, fullName, email string) error {
	const query = `UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, fullName, strings.ToLower(email), time.Now().UTC()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateUser
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateAvatar replaces the avatar URL.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	const query = `UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC()); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

// UpdateCoverImage replaces the cover image URL.
func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) error {
	const query = `UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC()); err != nil {
		return fmt.Errorf("update cover image: %w", err)
	}
	return nil
}

// GetChannelProfile returns the public channel view for a username.
func (r *UserRepository) GetChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error) {
	const query = `SELECT u.id, u.username, u.full_name, u.avatar, u.cover_image,
		(SELECT COUNT(*) FROM videos v WHERE v.owner_id = u.id AND v.is_published) AS video_count,
		u.created_at
		FROM users u WHERE u.username = $1 LIMIT 1`
	var profile models.ChannelProfile
	if err := r.db.GetContext(ctx, &profile, query, strings.ToLower(username)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get channel profile: %w", err)
	}
	return &profile, nil
}
