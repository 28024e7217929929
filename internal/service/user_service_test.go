package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/pkg/config"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

type mockProfileRepo struct {
	user       *models.User
	profile    *models.ChannelProfile
	profileHit int
	history    []models.WatchHistoryEntry
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	clone := *m.user
	return &clone, nil
}

func (m *mockProfileRepo) UpdateProfile(ctx context.Context, id, fullName, email string) error {
	m.user.FullName = fullName
	m.user.Email = email
	return nil
}

func (m *mockProfileRepo) UpdateAvatar(ctx context.Context, id, url string) error {
	m.user.Avatar = url
	return nil
}

func (m *mockProfileRepo) UpdateCoverImage(ctx context.Context, id, url string) error {
	m.user.CoverImage = url
	return nil
}

func (m *mockProfileRepo) GetChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error) {
	if m.profile == nil || m.profile.Username != username {
		return nil, sql.ErrNoRows
	}
	m.profileHit++
	clone := *m.profile
	return &clone, nil
}

func (m *mockProfileRepo) WatchHistory(ctx context.Context, userID string, limit int) ([]models.WatchHistoryEntry, error) {
	return m.history, nil
}

// memoryCache is a map-backed stand-in for the redis cache repository.
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	profile, isProfile := dest.(*models.ChannelProfile)
	if !isProfile {
		return appErrors.ErrCacheMiss
	}
	profile.Username = string(raw)
	return nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	profile, ok := value.(*models.ChannelProfile)
	if !ok {
		return nil
	}
	c.values[key] = []byte(profile.Username)
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func newTestMedia(t *testing.T) *storage.MediaStore {
	t.Helper()
	base := t.TempDir()
	store, err := storage.NewMediaStore(config.MediaConfig{
		StorageDir: filepath.Join(base, "media"),
		PublicBase: "/media",
		TempDir:    filepath.Join(base, "temp"),
	})
	require.NoError(t, err)
	return store
}

func aliceRepo() *mockProfileRepo {
	return &mockProfileRepo{
		user: &models.User{ID: "u1", Username: "alice", Email: "alice@x.com", FullName: "Alice", Avatar: "/media/old.png"},
		profile: &models.ChannelProfile{ID: "u1", Username: "alice", FullName: "Alice", VideoCount: 2},
	}
}

func TestGetChannelCaches(t *testing.T) {
	repo := aliceRepo()
	cache := newMemoryCache()
	svc := NewUserService(repo, repo, newTestMedia(t), cache, time.Minute, nil, validator.New(), zap.NewNop())

	profile, err := svc.GetChannel(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 1, repo.profileHit)

	// second call is served from cache
	_, err = svc.GetChannel(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.profileHit)
}

func TestGetChannelUnknown(t *testing.T) {
	repo := aliceRepo()
	svc := NewUserService(repo, repo, newTestMedia(t), newMemoryCache(), time.Minute, nil, validator.New(), zap.NewNop())

	_, err := svc.GetChannel(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateProfileInvalidatesChannelCache(t *testing.T) {
	repo := aliceRepo()
	cache := newMemoryCache()
	svc := NewUserService(repo, repo, newTestMedia(t), cache, time.Minute, nil, validator.New(), zap.NewNop())

	_, err := svc.GetChannel(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, cache.values)

	_, err = svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileRequest{FullName: "Alice B", Email: "aliceb@x.com"})
	require.NoError(t, err)
	assert.Empty(t, cache.values)
	assert.Equal(t, "Alice B", repo.user.FullName)
}

func TestUpdateAvatarStoresFile(t *testing.T) {
	repo := aliceRepo()
	media := newTestMedia(t)
	svc := NewUserService(repo, repo, media, newMemoryCache(), time.Minute, nil, validator.New(), zap.NewNop())

	src := filepath.Join(media.TempDir(), "new.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	user, err := svc.UpdateAvatar(context.Background(), "u1", src)
	require.NoError(t, err)
	assert.NotEqual(t, "/media/old.png", user.Avatar)
	assert.Contains(t, user.Avatar, "/media/")
}

func TestUpdateAvatarMissingFile(t *testing.T) {
	repo := aliceRepo()
	svc := NewUserService(repo, repo, newTestMedia(t), newMemoryCache(), time.Minute, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateAvatar(context.Background(), "u1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
