package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsaikia03/main-backend/pkg/config"
)

func newTestStore(t *testing.T) *MediaStore {
	t.Helper()
	base := t.TempDir()
	store, err := NewMediaStore(config.MediaConfig{
		StorageDir: filepath.Join(base, "media"),
		PublicBase: "/media",
		TempDir:    filepath.Join(base, "temp"),
	})
	require.NoError(t, err)
	return store
}

func TestUploadReturnsPublicURL(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(store.TempDir(), "avatar.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	url, err := store.Upload(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	// source is consumed, stored copy exists
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	stored := filepath.Join(store.Dir(), filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestUploadMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upload(filepath.Join(store.TempDir(), "nope.mp4"))
	assert.Error(t, err)

	_, err = store.Upload("")
	assert.Error(t, err)
}

func TestRemoveByPublicURL(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(store.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpg"), 0o644))
	url, err := store.Upload(src)
	require.NoError(t, err)

	require.NoError(t, store.Remove(url))
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.Base(url)))
	assert.True(t, os.IsNotExist(err))

	// removing again is not an error
	assert.NoError(t, store.Remove(url))
	assert.NoError(t, store.Remove(""))
}
