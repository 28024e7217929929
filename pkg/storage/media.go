package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/debsaikia03/main-backend/pkg/config"
)

// MediaStore moves locally uploaded files into the public media
// directory and hands back the URL they are served under. The contract
// is deliberately narrow: given a local file path, return a public URL
// or fail.
type MediaStore struct {
	baseDir    string
	publicBase string
	tempDir    string
}

// NewMediaStore ensures the storage and temp directories exist.
func NewMediaStore(cfg config.MediaConfig) (*MediaStore, error) {
	baseDir := cfg.StorageDir
	if baseDir == "" {
		baseDir = "./public/media"
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = "./public/temp"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &MediaStore{baseDir: baseDir, publicBase: strings.TrimRight(cfg.PublicBase, "/"), tempDir: tempDir}, nil
}

// Upload moves the file at localPath under the media directory and
// returns its public URL. The source file is removed whether or not the
// move succeeds.
func (s *MediaStore) Upload(localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("empty media path")
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	dest := filepath.Join(s.baseDir, name)

	if err := moveFile(localPath, dest); err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("store media file: %w", err)
	}

	return s.publicBase + "/" + name, nil
}

// Remove deletes a previously uploaded file referenced by its public URL.
// Unknown or already-deleted files are not an error.
func (s *MediaStore) Remove(publicURL string) error {
	if publicURL == "" {
		return nil
	}
	name := path.Base(publicURL)
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// TempDir is where request handlers park uploads before storing them.
func (s *MediaStore) TempDir() string {
	return s.tempDir
}

// Dir exposes the directory the static file server mounts.
func (s *MediaStore) Dir() string {
	return s.baseDir
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to copy+remove.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dest)
		return err
	}

	return os.Remove(src)
}
