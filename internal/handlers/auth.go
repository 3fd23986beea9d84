package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	"github.com/hoangtran/portfolio-api/internal/middleware"
	appErrors "github.com/hoangtran/portfolio-api/pkg/errors"
	"github.com/hoangtran/portfolio-api/pkg/response"
)

// AuthHandler manages the authentication flows (login, OTP verification,
// refresh, logout). Tokens travel in hardened cookies; bodies only carry
// status information.
type AuthHandler struct {
	svc     *iauth.AuthService
	jwt     *iauth.JWTService
	devices *iauth.DeviceService
	cookies middleware.CookieSettings
}

func NewAuthHandler(svc *iauth.AuthService, jwt *iauth.JWTService, devices *iauth.DeviceService, cookies middleware.CookieSettings) *AuthHandler {
	return &AuthHandler{svc: svc, jwt: jwt, devices: devices, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
	RememberMe bool   `json:"remember_me"`
}

type logoutRequest struct {
	ForgetDevice bool `json:"forget_device"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	deviceToken, _ := c.Cookie(middleware.DeviceTokenCookie)

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, deviceToken)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	if result.Status == iauth.StatusLoginSuccess {
		h.setSessionCookies(c, result.Tokens)
	}

	response.Success(c, http.StatusOK, gin.H{
		"status": result.Status,
		"email":  result.Email,
	})
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.Code, req.RememberMe, c.Request.UserAgent())
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	h.setSessionCookies(c, result.Tokens)
	if result.DeviceToken != "" {
		h.cookies.Set(c, middleware.DeviceTokenCookie, result.DeviceToken, int(h.devices.TrustTTL().Seconds()))
	}

	response.Success(c, http.StatusOK, gin.H{
		"status": result.Status,
		"email":  result.Email,
	})
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		response.Error(c, appErrors.ErrInvalidRefreshToken)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearSessionCookies(c)
		response.Error(c, mapAuthError(err))
		return
	}

	h.setSessionCookies(c, pair)
	response.Success(c, http.StatusOK, gin.H{"refreshed": true})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength > 0 {
		// Body is optional; ignore malformed payloads and treat as defaults.
		_ = c.ShouldBindJSON(&req)
	}

	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)

	deviceToken := ""
	if req.ForgetDevice {
		deviceToken, _ = c.Cookie(middleware.DeviceTokenCookie)
	}

	if err := h.svc.Logout(c.Request.Context(), refreshToken, deviceToken); err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	h.clearSessionCookies(c)
	if req.ForgetDevice {
		h.cookies.Clear(c, middleware.DeviceTokenCookie)
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, pair iauth.TokenPair) {
	h.cookies.Set(c, middleware.AccessTokenCookie, pair.AccessToken, int(h.jwt.AccessTokenTTL().Seconds()))
	h.cookies.Set(c, middleware.RefreshTokenCookie, pair.RefreshToken, int(h.jwt.RefreshTokenTTL().Seconds()))
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	h.cookies.Clear(c, middleware.AccessTokenCookie)
	h.cookies.Clear(c, middleware.RefreshTokenCookie)
}

// mapAuthError translates service sentinels into renderable API errors.
func mapAuthError(err error) *appErrors.AppError {
	switch {
	case errors.Is(err, iauth.ErrAdminNotFound):
		return appErrors.ErrUserNotFound
	case errors.Is(err, iauth.ErrInvalidPassword):
		return appErrors.ErrInvalidPassword
	case errors.Is(err, iauth.ErrOTPInvalid):
		return appErrors.ErrInvalidOTP
	case errors.Is(err, iauth.ErrEmailSendFailed):
		return appErrors.ErrEmailSendFailed
	case errors.Is(err, iauth.ErrSessionInvalidToken):
		return appErrors.ErrInvalidRefreshToken
	case errors.Is(err, iauth.ErrSessionRevoked):
		return appErrors.ErrTokenRevoked
	case errors.Is(err, iauth.ErrSessionExpired):
		return appErrors.ErrRefreshTokenExpired
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
