package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	apperrors "github.com/hoangtran/portfolio-api/pkg/errors"
	"github.com/hoangtran/portfolio-api/pkg/logger"
	"github.com/hoangtran/portfolio-api/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxAdminIDKey = "adminID"
)

// SessionGuard authenticates requests with the access-token cookie (or a
// Bearer header). When the access token is missing or stale it falls back to
// the refresh cookie and silently re-mints an access token, leaving the
// refresh session untouched. A refresh token that verifies but has no store
// row is reported as revoked, distinct from plain expiry.
func SessionGuard(jwt *iauth.JWTService, sessions *iauth.SessionService, cookies CookieSettings) gin.HandlerFunc {
	log := logger.WithModule("middleware.auth")

	return func(c *gin.Context) {
		if token := extractAccessToken(c); token != "" {
			if claims, err := jwt.ValidateAccessToken(token); err == nil {
				c.Set(CtxClaimsKey, claims)
				c.Set(CtxAdminIDKey, claims.AdminID)
				c.Next()
				return
			}
		}

		refreshToken, err := c.Cookie(RefreshTokenCookie)
		if err != nil || refreshToken == "" {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		accessToken, adminID, err := sessions.Reissue(c.Request.Context(), refreshToken)
		if err != nil {
			cookies.Clear(c, AccessTokenCookie)
			cookies.Clear(c, RefreshTokenCookie)

			switch {
			case errors.Is(err, iauth.ErrSessionRevoked):
				log.Warn("revoked refresh token presented",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path),
				)
				response.Error(c, apperrors.ErrTokenRevoked)
			case errors.Is(err, iauth.ErrSessionExpired):
				response.Error(c, apperrors.ErrRefreshTokenExpired)
			default:
				response.Error(c, apperrors.ErrUnauthorized)
			}
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(accessToken)
		if err != nil {
			response.Error(c, apperrors.ErrInternalServer)
			c.Abort()
			return
		}

		cookies.Set(c, AccessTokenCookie, accessToken, int(jwt.AccessTokenTTL().Seconds()))
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAdminIDKey, adminID)
		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}

	return ""
}
