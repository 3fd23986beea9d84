package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	"github.com/hoangtran/portfolio-api/internal/middleware"
	"github.com/hoangtran/portfolio-api/pkg/errors"
	"github.com/hoangtran/portfolio-api/pkg/response"
)

// DeviceHandler exposes the trusted-device grants of the authenticated admin.
type DeviceHandler struct {
	devices *iauth.DeviceService
}

func NewDeviceHandler(devices *iauth.DeviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type deviceInfo struct {
	Token     string    `json:"token"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GET /api/admin/devices
func (h *DeviceHandler) List(c *gin.Context) {
	adminID := currentAdminID(c)
	if adminID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	devices, err := h.devices.List(c.Request.Context(), adminID)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	infos := make([]deviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, deviceInfo{
			Token:     d.DeviceToken,
			UserAgent: d.UserAgent,
			CreatedAt: d.CreatedAt,
			ExpiresAt: d.ExpiresAt,
		})
	}

	response.Success(c, http.StatusOK, gin.H{"devices": infos})
}

// DELETE /api/admin/devices/:token
func (h *DeviceHandler) Forget(c *gin.Context) {
	adminID := currentAdminID(c)
	if adminID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	token := c.Param("token")
	if token == "" {
		response.Error(c, errors.NewBadRequest("device token is required"))
		return
	}

	if err := h.devices.Forget(c.Request.Context(), adminID, token); err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"forgotten": true})
}

func currentAdminID(c *gin.Context) string {
	v, ok := c.Get(middleware.CtxAdminIDKey)
	if !ok {
		return ""
	}
	adminID, _ := v.(string)
	return adminID
}
