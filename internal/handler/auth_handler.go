package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debsaikia03/main-backend/internal/middleware"
	"github.com/debsaikia03/main-backend/internal/models"
	"github.com/debsaikia03/main-backend/internal/service"
	"github.com/debsaikia03/main-backend/pkg/config"
	"github.com/debsaikia03/main-backend/pkg/cookies"
	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
	"github.com/debsaikia03/main-backend/pkg/response"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

// AuthHandler wires HTTP endpoints to the auth service. Tokens travel
// both in the response body and as httpOnly cookies.
type AuthHandler struct {
	service *service.AuthService
	media   *storage.MediaStore
	auth    config.AuthConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, media *storage.MediaStore, auth config.AuthConfig) *AuthHandler {
	return &AuthHandler{service: svc, media: media, auth: auth}
}

// Register accepts a multipart form: text fields plus an avatar file
// (required) and a coverImage file (optional).
func (h *AuthHandler) Register(c *gin.Context) {
	req := models.RegisterRequest{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("fullName"),
		Password: c.PostForm("password"),
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar file is required"))
		return
	}
	avatarURL, err := saveUpload(c, h.media, avatarFile)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Avatar = avatarURL

	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverURL, err := saveUpload(c, h.media, coverFile)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.CoverImage = coverURL
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user, "user registered successfully")
}

// Login authenticates and opens a session. The token pair is set as
// cookies and echoed in the body for non-browser clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	cookies.SetTokenPair(c, h.auth, res.AccessToken, res.RefreshToken)
	response.JSON(c, http.StatusOK, res, "user logged in successfully")
}

// Refresh rotates the session. The refresh token is read from the
// cookie first, then from the request body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	presented := cookies.RefreshToken(c)
	if presented == "" {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&payload); err == nil {
			presented = payload.RefreshToken
		}
	}

	pair, err := h.service.Refresh(c.Request.Context(), presented)
	if err != nil {
		response.Error(c, err)
		return
	}

	cookies.SetTokenPair(c, h.auth, pair.AccessToken, pair.RefreshToken)
	response.JSON(c, http.StatusOK, pair, "access token refreshed")
}

// Logout invalidates the stored refresh token and clears both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), user.ID); err != nil {
		response.Error(c, err)
		return
	}

	cookies.ClearTokenPair(c, h.auth)
	response.JSON(c, http.StatusOK, nil, "user logged out")
}

// ChangePassword verifies the old password and stores a new hash. The
// session is terminated, so the cookies are cleared as well.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), user.ID, req); err != nil {
		response.Error(c, err)
		return
	}

	cookies.ClearTokenPair(c, h.auth)
	response.JSON(c, http.StatusOK, nil, "password changed successfully")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.JSON(c, http.StatusOK, user, "current user fetched successfully")
}
