package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/errors"
	"github.com/hoangtran/portfolio-api/pkg/response"
)

// ProfileHandler serves the authenticated admin's own record.
type ProfileHandler struct {
	db *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GET /api/admin/me
func (h *ProfileHandler) Me(c *gin.Context) {
	adminID := currentAdminID(c)
	if adminID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var admin models.Admin
	if err := h.db.Take(&admin, "id = ?", adminID).Error; err != nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":         admin.ID,
		"email":      admin.Email,
		"created_at": admin.CreatedAt,
	})
}
