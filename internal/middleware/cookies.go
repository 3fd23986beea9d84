package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie names the cookie carrying the short-lived access JWT.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie names the cookie carrying the refresh JWT.
	RefreshTokenCookie = "refresh_token"
	// DeviceTokenCookie names the cookie carrying the trusted-device grant.
	DeviceTokenCookie = "device_token"
)

// CookieSettings controls the attributes applied to every auth cookie.
type CookieSettings struct {
	Domain string
	Secure bool
}

// Set writes an auth cookie with the hardened attribute set: HttpOnly,
// SameSite=Strict, path-wide scope.
func (s CookieSettings) Set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", s.Domain, s.Secure, true)
}

// Clear expires an auth cookie immediately.
func (s CookieSettings) Clear(c *gin.Context, name string) {
	s.Set(c, name, "", -1)
}
