package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/debsaikia03/main-backend/pkg/errors"
)

// Envelope is the uniform response contract: every outward-facing
// operation responds with this shape, success and failure alike.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
}

// JSON sends a success envelope.
func JSON(c *gin.Context, status int, data interface{}, message string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error sends a failure envelope derived from the typed error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{
		StatusCode: appErr.Status,
		Data:       nil,
		Message:    appErr.Message,
		Success:    false,
		Errors:     []string{publicCode(appErr)},
	})
}

// publicCode is the code written to the wire. Token reuse stays an
// internal distinction: on the wire it must be indistinguishable from
// any other rejected token, so only logs ever see the real code.
func publicCode(appErr *appErrors.Error) string {
	if appErr.Code == appErrors.ErrTokenReuse.Code {
		return appErrors.ErrUnauthorized.Code
	}
	return appErr.Code
}
