package handler

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

// saveUpload spools a multipart file through the media temp dir and
// hands it to the store, which moves it into its public location and
// returns the serving URL.
func saveUpload(c *gin.Context, media *storage.MediaStore, file *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	tempPath := filepath.Join(media.TempDir(), name)
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save uploaded file")
	}
	url, err := media.Upload(tempPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store uploaded file")
	}
	return url, nil
}
