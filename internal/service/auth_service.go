package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/repository"
	"github.com/debsaikia03/main-backend/internal/token"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/security"
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsernameOrEmail(ctx context.Context, value string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// AuthService owns credential verification and the session-token
// lifecycle: registration, login, rotation, logout.
type AuthService struct {
	repo      authUserRepository
	tokens    *token.Issuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens *token.Issuer, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, tokens: tokens, validator: validate, logger: logger}
}

// Register creates a new account. The password is hashed before the
// record is ever persisted; duplicates surface as Conflict through the
// store's unique constraints.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all fields are required")
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		Avatar:       req.Avatar,
		CoverImage:   req.CoverImage,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user with username or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	return sanitize(user), nil
}

// Login authenticates by username or email and opens a fresh session:
// a new token pair is issued and the refresh token persisted.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username or email and password are required")
	}
	identifier := strings.TrimSpace(req.Identifier())
	if identifier == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username or email is required")
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !security.ComparePassword(user.PasswordHash, req.Password) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid user credentials")
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		User:         sanitize(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh exchanges a still-valid refresh token for a new pair. Each
// refresh token is good for exactly one rotation: the store swap is a
// conditional update, so a stale or replayed token fails deterministically.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*models.TokenPair, error) {
	if presented == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required")
	}

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, _, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign refresh token")
	}

	if err := s.repo.RotateRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			s.logger.Warn("refresh token reuse detected", zap.String("user_id", user.ID))
			return nil, appErrors.Clone(appErrors.ErrTokenReuse, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout clears the stored refresh token. Any refresh token issued
// before this point can no longer rotate. Access tokens stay valid
// until their own short expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.SetRefreshToken(ctx, userID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear refresh token")
	}
	return nil
}

// ChangePassword verifies the old password, stores the new hash and
// terminates the active session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "old and new passwords are required")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if !security.ComparePassword(user.PasswordHash, req.OldPassword) {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password does not match")
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if err := s.repo.SetRefreshToken(ctx, userID, nil); err != nil {
		s.logger.Warn("failed to clear refresh token after password change", zap.Error(err))
	}

	return nil
}

// VerifyAccessToken checks an access token and loads the identity it
// references. Every failure is normalized to Unauthorized so the
// failure path reveals nothing about internal state. The stored refresh
// token is deliberately not consulted here.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.VerifyAccess(tokenString)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access token")
	}

	return sanitize(user), nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	accessToken, _, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign refresh token")
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// sanitize copies the user without its secret-bearing fields.
func sanitize(user *models.User) *models.User {
	clean := *user
	clean.PasswordHash = ""
	clean.RefreshToken = nil
	return &clean
}
