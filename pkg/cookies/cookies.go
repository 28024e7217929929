package cookies

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debsaikia03/main-backend/pkg/config"
)

// Cookie names for the token pair.
const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// SetTokenPair writes both token cookies. Max-Age follows the
// respective configured TTL.
func SetTokenPair(c *gin.Context, cfg config.AuthConfig, accessToken, refreshToken string) {
	setToken(c, cfg, AccessTokenName, accessToken, int(cfg.AccessTokenExpiry.Seconds()))
	setToken(c, cfg, RefreshTokenName, refreshToken, int(cfg.RefreshTokenExpiry.Seconds()))
}

// ClearTokenPair expires both token cookies.
func ClearTokenPair(c *gin.Context, cfg config.AuthConfig) {
	setToken(c, cfg, AccessTokenName, "", -1)
	setToken(c, cfg, RefreshTokenName, "", -1)
}

// AccessToken returns the access token cookie value, if present.
func AccessToken(c *gin.Context) string {
	v, err := c.Cookie(AccessTokenName)
	if err != nil {
		return ""
	}
	return v
}

// RefreshToken returns the refresh token cookie value, if present.
func RefreshToken(c *gin.Context) string {
	v, err := c.Cookie(RefreshTokenName)
	if err != nil {
		return ""
	}
	return v
}

func setToken(c *gin.Context, cfg config.AuthConfig, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
