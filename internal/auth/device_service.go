package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
)

// DefaultDeviceTrustTTL is the fallback lifetime of a trusted-device grant.
const DefaultDeviceTrustTTL = 30 * 24 * time.Hour

// DeviceConfig describes tunable behaviour for the DeviceService.
type DeviceConfig struct {
	TrustTTL time.Duration
	Clock    func() time.Time
}

// DeviceService manages "remember this device" grants. A valid grant lets a
// login skip the OTP step entirely.
type DeviceService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewDeviceService constructs a trusted-device store backed by the provided database.
func NewDeviceService(db *gorm.DB, cfg DeviceConfig) (*DeviceService, error) {
	if db == nil {
		return nil, errors.New("device service: db is required")
	}

	ttl := cfg.TrustTTL
	if ttl <= 0 {
		ttl = DefaultDeviceTrustTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &DeviceService{db: db, ttl: ttl, now: clock}, nil
}

// TrustTTL reports the configured grant lifetime.
func (s *DeviceService) TrustTTL() time.Duration {
	return s.ttl
}

// Trusted reports whether the supplied device token is a live grant for this
// admin. The lookup is scoped to the owner: a token minted for one admin never
// grants bypass for another.
func (s *DeviceService) Trusted(ctx context.Context, adminID, deviceToken string) (bool, error) {
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TrustedDevice{}).
		Where("admin_id = ? AND device_token = ? AND expires_at > ?", adminID, deviceToken, s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("device service: lookup: %w", err)
	}

	return count > 0, nil
}

// Trust mints a new grant for the admin on the supplied transaction handle.
// Grants are never renewed in place; each opt-in creates a fresh record.
func (s *DeviceService) Trust(tx *gorm.DB, adminID, userAgent string) (*models.TrustedDevice, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, errors.New("device service: admin id is required")
	}

	device := models.TrustedDevice{
		AdminID:     adminID,
		DeviceToken: uuid.NewString(),
		UserAgent:   strings.TrimSpace(userAgent),
		ExpiresAt:   s.now().Add(s.ttl),
	}

	if err := tx.Create(&device).Error; err != nil {
		return nil, fmt.Errorf("device service: create grant: %w", err)
	}

	return &device, nil
}

// List returns every grant belonging to the admin, live or expired.
func (s *DeviceService) List(ctx context.Context, adminID string) ([]models.TrustedDevice, error) {
	var devices []models.TrustedDevice
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("device service: list: %w", err)
	}
	return devices, nil
}

// Forget revokes a grant by token, scoped to the owning admin. Removing an
// unknown token is not an error.
func (s *DeviceService) Forget(ctx context.Context, adminID, deviceToken string) error {
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		return nil
	}

	err := s.db.WithContext(ctx).
		Where("admin_id = ? AND device_token = ?", adminID, deviceToken).
		Delete(&models.TrustedDevice{}).Error
	if err != nil {
		return fmt.Errorf("device service: forget: %w", err)
	}
	return nil
}

// CleanupExpired removes grants past their expiry.
func (s *DeviceService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.TrustedDevice{})
	if result.Error != nil {
		return 0, fmt.Errorf("device service: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
