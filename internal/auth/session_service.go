package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/metrics"
)

var (
	// ErrSessionInvalidToken is returned when the supplied refresh token is
	// malformed or its signature does not verify.
	ErrSessionInvalidToken = errors.New("session: invalid token")
	// ErrSessionRevoked marks a validly-signed refresh token with no matching
	// store row: it was already rotated out or explicitly revoked. This is the
	// replay-detection signal and is distinct from expiry.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that the stored refresh session has reached
	// its expiry.
	ErrSessionExpired = errors.New("session: expired")
)

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	Clock func() time.Time
}

// SessionService owns the refresh-session store and mints access/refresh
// pairs. Refresh tokens are signed JWTs that are additionally persisted
// row-per-session; rotation deletes the row, making each token single-use.
type SessionService struct {
	db  *gorm.DB
	jwt *JWTService
	now func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{db: db, jwt: jwtService, now: clock}, nil
}

// Issue mints a fresh access/refresh pair and persists the refresh session on
// the supplied transaction handle, so the row commits or rolls back together
// with the caller's other writes (OTP consumption, device creation).
func (s *SessionService) Issue(tx *gorm.DB, adminID, email string) (TokenPair, error) {
	if strings.TrimSpace(adminID) == "" {
		return TokenPair{}, errors.New("session service: admin id is required")
	}

	accessToken, err := s.jwt.GenerateAccessToken(adminID, email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwt.GenerateRefreshToken(adminID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	session := models.RefreshSession{
		AdminID:   adminID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}
	if err := tx.Create(&session).Error; err != nil {
		return TokenPair{}, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Rotate exchanges a live refresh token for a new pair, destroying the old
// session row in the same transaction. A token that verifies but has no row
// was already rotated: two racing refreshes resolve with exactly one winner
// because the loser's delete matches zero rows.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrSessionInvalidToken
	}

	var pair TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.takeSession(tx, refreshToken)
		if err != nil {
			return err
		}

		if session.ExpiresAt.Before(s.now()) {
			if err := tx.Delete(session).Error; err != nil {
				return fmt.Errorf("session service: drop expired session: %w", err)
			}
			metrics.ActiveSessions.Dec()
			return ErrSessionExpired
		}

		result := tx.Where("id = ?", session.ID).Delete(&models.RefreshSession{})
		if result.Error != nil {
			return fmt.Errorf("session service: rotate delete: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// A concurrent refresh won the race after our read.
			return ErrSessionRevoked
		}
		metrics.ActiveSessions.Dec()

		var admin models.Admin
		if err := tx.Take(&admin, "id = ?", claims.AdminID).Error; err != nil {
			return fmt.Errorf("session service: load admin: %w", err)
		}

		pair, err = s.Issue(tx, admin.ID, admin.Email)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

// Reissue validates a refresh token against the store and mints a fresh
// access token without rotating the session row. This is the session guard's
// fallback path: the refresh session and its expiry stay untouched.
func (s *SessionService) Reissue(ctx context.Context, refreshToken string) (string, string, error) {
	if _, err := s.jwt.ValidateRefreshToken(refreshToken); err != nil {
		return "", "", ErrSessionInvalidToken
	}

	var session *models.RefreshSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.takeSession(tx, refreshToken)
		if err != nil {
			return err
		}

		if found.ExpiresAt.Before(s.now()) {
			if err := tx.Delete(found).Error; err != nil {
				return fmt.Errorf("session service: drop expired session: %w", err)
			}
			metrics.ActiveSessions.Dec()
			return ErrSessionExpired
		}

		session = found
		return nil
	})
	if err != nil {
		return "", "", err
	}

	var admin models.Admin
	if err := s.db.WithContext(ctx).Take(&admin, "id = ?", session.AdminID).Error; err != nil {
		return "", "", fmt.Errorf("session service: load admin: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(admin.ID, admin.Email)
	if err != nil {
		return "", "", fmt.Errorf("session service: generate access token: %w", err)
	}

	return accessToken, admin.ID, nil
}

// Revoke deletes the session matching the refresh token. Unknown tokens are
// not an error, which makes logout idempotent.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	result := s.db.WithContext(ctx).
		Where("token = ?", refreshToken).
		Delete(&models.RefreshSession{})
	if result.Error != nil {
		return fmt.Errorf("session service: revoke: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}
	return nil
}

// CleanupExpired removes sessions past their expiry.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.RefreshSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *SessionService) takeSession(tx *gorm.DB, refreshToken string) (*models.RefreshSession, error) {
	var session models.RefreshSession
	err := tx.Where("token = ?", refreshToken).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RevokedTokenDetections.Inc()
		return nil, ErrSessionRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}
	return &session, nil
}
