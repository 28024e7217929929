package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/debsaikia03/main-backend/internal/middleware"
	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/service"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/response"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

// VideoHandler exposes the video catalogue endpoints.
type VideoHandler struct {
	service *service.VideoService
	media   *storage.MediaStore
}

// NewVideoHandler creates a new handler.
func NewVideoHandler(svc *service.VideoService, media *storage.MediaStore) *VideoHandler {
	return &VideoHandler{service: svc, media: media}
}

// Publish accepts a multipart form with metadata fields plus videoFile
// and thumbnail uploads.
func (h *VideoHandler) Publish(c *gin.Context) {
	owner, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)
	req := models.PublishVideoRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Duration:    duration,
	}

	videoURL, err := h.formUpload(c, "videoFile")
	if err != nil {
		response.Error(c, err)
		return
	}
	req.VideoURL = videoURL

	thumbURL, err := h.formUpload(c, "thumbnail")
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ThumbnailURL = thumbURL

	video, err := h.service.Publish(c.Request.Context(), owner.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, video, "video published successfully")
}

// Get returns a single video. Viewing a published video counts a view
// and records watch history for the caller.
func (h *VideoHandler) Get(c *gin.Context) {
	viewer, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	video, err := h.service.Get(c.Request.Context(), viewer.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, video, "video fetched successfully")
}

// List returns a page of videos. By default only published videos are
// visible; owners can list their own drafts with ?owner=me.
func (h *VideoHandler) List(c *gin.Context) {
	viewer, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := models.VideoFilter{PublishedOnly: true, Page: page, PageSize: pageSize}
	switch owner := c.Query("owner"); owner {
	case "":
	case "me":
		filter.OwnerID = viewer.ID
		filter.PublishedOnly = false
	default:
		filter.OwnerID = owner
	}

	videos, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"videos": videos,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.PageSize,
	}, "videos fetched successfully")
}

// Update changes a video's title and description. Owner only.
func (h *VideoHandler) Update(c *gin.Context) {
	owner, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	video, err := h.service.Update(c.Request.Context(), owner.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, video, "video updated successfully")
}

// Delete removes a video and its stored media files. Owner only.
func (h *VideoHandler) Delete(c *gin.Context) {
	owner, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), owner.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, nil, "video deleted successfully")
}

// TogglePublish flips a video between draft and published. Owner only.
func (h *VideoHandler) TogglePublish(c *gin.Context) {
	owner, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	video, err := h.service.TogglePublish(c.Request.Context(), owner.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, video, "publish status toggled")
}

func (h *VideoHandler) formUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, field+" file is required")
	}
	return saveUpload(c, h.media, file)
}
