package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/crypto"
	"github.com/hoangtran/portfolio-api/pkg/logger"
	"github.com/hoangtran/portfolio-api/pkg/mail"
	"github.com/hoangtran/portfolio-api/pkg/metrics"
)

var (
	// ErrAdminNotFound is returned when no administrator matches the email.
	ErrAdminNotFound = errors.New("auth: admin not found")
	// ErrInvalidPassword is returned when the password does not match the stored hash.
	ErrInvalidPassword = errors.New("auth: invalid password")
	// ErrEmailSendFailed signals that the OTP email could not be delivered.
	// The challenge stays persisted; the next login attempt replaces it and
	// the short expiry clears it regardless.
	ErrEmailSendFailed = errors.New("auth: email send failed")
)

// LoginStatus distinguishes the two successful login outcomes.
type LoginStatus string

const (
	// StatusLoginSuccess means tokens were issued (trusted device or OTP verified).
	StatusLoginSuccess LoginStatus = "LOGIN_SUCCESS"
	// StatusOTPSent means a second-factor code was emailed; no tokens yet.
	StatusOTPSent LoginStatus = "OTP_SENT"
)

// LoginResult carries the outcome of Login or VerifyOTP.
type LoginResult struct {
	Status      LoginStatus
	Email       string
	Tokens      TokenPair
	DeviceToken string
}

// AuthService composes the credential check, device-trust bypass, OTP
// issuance, and token minting into the login, verification, refresh, and
// logout flows.
type AuthService struct {
	db       *gorm.DB
	sessions *SessionService
	otp      *OTPService
	devices  *DeviceService
	mailer   mail.Mailer
	log      *zap.Logger
}

// NewAuthService constructs the orchestrator. The mailer may be nil in tests;
// OTP logins then fail at the dispatch step like any other delivery error.
func NewAuthService(db *gorm.DB, sessions *SessionService, otp *OTPService, devices *DeviceService, mailer mail.Mailer) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if sessions == nil {
		return nil, errors.New("auth service: session service is required")
	}
	if otp == nil {
		return nil, errors.New("auth service: otp service is required")
	}
	if devices == nil {
		return nil, errors.New("auth service: device service is required")
	}

	return &AuthService{
		db:       db,
		sessions: sessions,
		otp:      otp,
		devices:  devices,
		mailer:   mailer,
		log:      logger.WithModule("auth"),
	}, nil
}

// Login verifies the credentials and either issues tokens directly (live
// trusted device) or emails a one-time code. No state is written when the
// credential check fails.
func (s *AuthService) Login(ctx context.Context, email, password, deviceToken string) (*LoginResult, error) {
	admin, err := s.findAdmin(ctx, email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, err
	}

	if !crypto.VerifyPassword(admin.Password, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidPassword
	}

	if deviceToken != "" {
		trusted, err := s.devices.Trusted(ctx, admin.ID, deviceToken)
		if err != nil {
			return nil, err
		}
		if trusted {
			var pair TokenPair
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				pair, err = s.sessions.Issue(tx, admin.ID, admin.Email)
				return err
			})
			if err != nil {
				return nil, err
			}

			metrics.LoginAttempts.WithLabelValues("success").Inc()
			return &LoginResult{Status: StatusLoginSuccess, Email: admin.Email, Tokens: pair}, nil
		}
	}

	code, err := s.otp.Issue(ctx, admin.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sendOTPEmail(ctx, admin.Email, code); err != nil {
		s.log.Error("otp email dispatch failed", zap.String("admin_id", admin.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	metrics.LoginAttempts.WithLabelValues("otp_sent").Inc()
	return &LoginResult{Status: StatusOTPSent, Email: admin.Email}, nil
}

// VerifyOTP consumes the emailed code and issues tokens. Challenge deletion,
// optional device-trust creation, and token minting commit as one transaction.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string, rememberMe bool, userAgent string) (*LoginResult, error) {
	admin, err := s.findAdmin(ctx, email)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Status: StatusLoginSuccess, Email: admin.Email}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.otp.Consume(tx, admin.ID, code); err != nil {
			return err
		}

		if rememberMe {
			device, err := s.devices.Trust(tx, admin.ID, userAgent)
			if err != nil {
				return err
			}
			result.DeviceToken = device.DeviceToken
		}

		pair, err := s.sessions.Issue(tx, admin.ID, admin.Email)
		if err != nil {
			return err
		}
		result.Tokens = pair
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return result, nil
}

// Refresh rotates a refresh token into a new access/refresh pair. A
// validly-signed token missing from the store is reported as revoked and
// logged as a possible replay.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	pair, err := s.sessions.Rotate(ctx, refreshToken)
	if errors.Is(err, ErrSessionRevoked) {
		s.log.Warn("refresh token replay detected", zap.String("token_prefix", tokenPrefix(refreshToken)))
	}
	return pair, err
}

// Logout destroys the refresh session and, when a device token is supplied,
// the trusted-device grant. It always succeeds from the caller's perspective.
func (s *AuthService) Logout(ctx context.Context, refreshToken, deviceToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	if deviceToken != "" {
		claims, err := s.sessions.jwt.ValidateRefreshToken(refreshToken)
		if err != nil {
			// Without a verifiable owner the grant stays; forgetting a device
			// for an unauthenticated caller would let anyone revoke grants.
			return nil
		}
		return s.devices.Forget(ctx, claims.AdminID, deviceToken)
	}

	return nil
}

func (s *AuthService) findAdmin(ctx context.Context, email string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrAdminNotFound
	}

	var admin models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: query admin: %w", err)
	}

	return &admin, nil
}

func (s *AuthService) sendOTPEmail(ctx context.Context, email, code string) error {
	if s.mailer == nil {
		return errors.New("auth service: no mailer configured")
	}

	minutes := int(s.otp.TTL() / time.Minute)
	body := fmt.Sprintf(
		"Your login verification code is: %s\n\nThe code expires in %d minutes.\nIf you did not request this, you can ignore this message.\n",
		code, minutes,
	)

	return s.mailer.Send(ctx, mail.Message{
		To:      []string{email},
		Subject: "Your login verification code",
		Body:    body,
	})
}

func tokenPrefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12]
}
