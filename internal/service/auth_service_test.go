package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/repository"
	"github.com/debsaikia03/main-backend/internal/token"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
)

// mockUserRepo mimics the credential store: one record per user with a
// single stored refresh token, rotated via compare-and-swap.
type mockUserRepo struct {
	users            map[string]*models.User
	createErr        error
	setRefreshErr    error
	rotateRefreshErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = "u" + user.Username
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) FindByUsernameOrEmail(ctx context.Context, value string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == value || user.Email == value {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) SetRefreshToken(ctx context.Context, id string, token *string) error {
	if m.setRefreshErr != nil {
		return m.setRefreshErr
	}
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.RefreshToken = token
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	if m.rotateRefreshErr != nil {
		return m.rotateRefreshErr
	}
	user, ok := m.users[id]
	if !ok || user.RefreshToken == nil || *user.RefreshToken != current {
		return repository.ErrRefreshTokenMismatch
	}
	user.RefreshToken = &next
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func newAuthService(repo *mockUserRepo) *AuthService {
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
	})
	return NewAuthService(repo, issuer, validator.New(), zap.NewNop())
}

func registerAlice(t *testing.T, svc *AuthService) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "alice@x.com",
		FullName: "Alice",
		Password: "secret123",
		Avatar:   "/media/a.png",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterStripsSecrets(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)

	user := registerAlice(t, svc)
	assert.Empty(t, user.PasswordHash)
	assert.Nil(t, user.RefreshToken)

	stored := repo.users[user.ID]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newAuthService(newMockUserRepo())
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "other@x.com",
		FullName: "Other",
		Password: "secret123",
		Avatar:   "/media/b.png",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterNormalizesCase(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "ALICE",
		Email:    "Alice@X.com",
		FullName: "Alice",
		Password: "secret123",
		Avatar:   "/media/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@x.com", user.Email)
}

func TestLoginSuccess(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	user := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Empty(t, res.User.PasswordHash)

	stored := repo.users[user.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
}

func TestLoginByEmail(t *testing.T) {
	svc := newAuthService(newMockUserRepo())
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@x.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestLoginMissingIdentifier(t *testing.T) {
	svc := newAuthService(newMockUserRepo())
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(newMockUserRepo())
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshSingleUse(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	t0 := res.RefreshToken

	pair, err := svc.Refresh(context.Background(), t0)
	require.NoError(t, err)
	t1 := pair.RefreshToken
	assert.NotEqual(t, t0, t1)

	// replaying the superseded token is reuse
	_, err = svc.Refresh(context.Background(), t0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTokenReuse.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrTokenReuse.Message, appErr.Message)

	// the fresh token still rotates
	_, err = svc.Refresh(context.Background(), t1)
	require.NoError(t, err)
}

func TestRefreshMissingToken(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc := newAuthService(newMockUserRepo())

	_, err := svc.Refresh(context.Background(), "garbage")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := newMockUserRepo()
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    -time.Minute,
	})
	svc := NewAuthService(repo, issuer, validator.New(), zap.NewNop())
	registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	user := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))
	assert.Nil(t, repo.users[user.ID].RefreshToken)

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenReuse.Code, appErrors.FromError(err).Code)
}

func TestVerifyAccessToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	user, err := svc.VerifyAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
	assert.Nil(t, user.RefreshToken)

	_, err = svc.VerifyAccessToken(context.Background(), "garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAccessTokenSurvivesLogout(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	user := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), user.ID))

	// access verification never consults the stored refresh token
	verified, err := svc.VerifyAccessToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestChangePasswordClearsSession(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	user := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "evenmoresecret"})
	require.NoError(t, err)
	assert.Nil(t, repo.users[user.ID].RefreshToken)

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.Error(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "evenmoresecret"})
	require.NoError(t, err)
}

func TestChangePasswordWrongOld(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo)
	user := registerAlice(t, svc)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "evenmoresecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}
