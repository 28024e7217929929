package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/debsaikia03/main-backend/internal/middleware"
	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/service"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/response"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

// UserHandler exposes profile, channel and watch-history endpoints.
type UserHandler struct {
	service *service.UserService
	media   *storage.MediaStore
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService, media *storage.MediaStore) *UserHandler {
	return &UserHandler{service: svc, media: media}
}

// UpdateProfile updates full name and email of the current user.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated, "account details updated successfully")
}

// UpdateAvatar replaces the current user's avatar image.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateMedia(c, "avatar", h.service.UpdateAvatar)
}

// UpdateCoverImage replaces the current user's cover image.
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateMedia(c, "coverImage", h.service.UpdateCoverImage)
}

// Channel returns the public channel profile for a username.
func (h *UserHandler) Channel(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "username is required"))
		return
	}

	profile, err := h.service.GetChannel(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory returns the current user's watch history, most recent first.
func (h *UserHandler) WatchHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.service.WatchHistory(c.Request.Context(), user.ID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, history, "watch history fetched successfully")
}

// updateMedia spools the uploaded file to the temp dir and delegates
// the swap to the service, which publishes the file and removes the
// previous one.
func (h *UserHandler) updateMedia(c *gin.Context, field string, apply func(ctx context.Context, userID, localPath string) (*models.User, error)) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	file, err := c.FormFile(field)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, field+" file is required"))
		return
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	tempPath := filepath.Join(h.media.TempDir(), name)
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save uploaded file"))
		return
	}

	updated, err := apply(c.Request.Context(), user.ID, tempPath)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated, field+" updated successfully")
}
