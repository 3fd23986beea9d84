package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/crypto"
	"github.com/hoangtran/portfolio-api/pkg/metrics"
)

const (
	defaultOTPDigits = 6
	defaultOTPTTL    = 5 * time.Minute
)

// ErrOTPInvalid is returned when no live challenge matches the submitted
// code. Wrong code and expired code reject identically so the caller cannot
// probe challenge validity.
var ErrOTPInvalid = errors.New("otp: invalid or expired code")

// OTPConfig describes tunable behaviour for the OTPService.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
	Clock  func() time.Time
}

// OTPService manages the one-time passcode challenges used as the second
// login factor. At most one live challenge exists per admin.
type OTPService struct {
	db     *gorm.DB
	digits int
	ttl    time.Duration
	now    func() time.Time
}

// NewOTPService constructs an OTP store backed by the provided database.
func NewOTPService(db *gorm.DB, cfg OTPConfig) (*OTPService, error) {
	if db == nil {
		return nil, errors.New("otp service: db is required")
	}

	digits := cfg.Digits
	if digits <= 0 {
		digits = defaultOTPDigits
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &OTPService{db: db, digits: digits, ttl: ttl, now: clock}, nil
}

// TTL reports the challenge lifetime, used when templating the OTP email.
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh challenge for the admin, superseding any prior one.
// The delete and create run in a single transaction so a crash cannot leave
// two live codes.
func (s *OTPService) Issue(ctx context.Context, adminID string) (string, error) {
	if strings.TrimSpace(adminID) == "" {
		return "", errors.New("otp service: admin id is required")
	}

	code, err := crypto.GenerateNumericCode(s.digits)
	if err != nil {
		return "", fmt.Errorf("otp service: generate code: %w", err)
	}

	challenge := models.OtpChallenge{
		AdminID:   adminID,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("admin_id = ?", adminID).Delete(&models.OtpChallenge{}).Error; err != nil {
			return fmt.Errorf("otp service: purge prior challenge: %w", err)
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("otp service: create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.OtpIssued.Inc()
	return code, nil
}

// Consume deletes the challenge matching the submitted code if it is still
// live, using the supplied transaction handle so the deletion commits together
// with the caller's token issuance.
func (s *OTPService) Consume(tx *gorm.DB, adminID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrOTPInvalid
	}

	var challenge models.OtpChallenge
	err := tx.Where("admin_id = ? AND code = ? AND expires_at > ?", adminID, code, s.now()).
		Take(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("otp service: find challenge: %w", err)
	}

	if err := tx.Delete(&challenge).Error; err != nil {
		return fmt.Errorf("otp service: consume challenge: %w", err)
	}

	return nil
}

// CleanupExpired removes challenges past their expiry. Reads already filter on
// expiry, so this is storage hygiene only.
func (s *OTPService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.OtpChallenge{})
	if result.Error != nil {
		return 0, fmt.Errorf("otp service: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
