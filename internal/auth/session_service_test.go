package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/hoangtran/portfolio-api/internal/database/testutil"
	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/crypto"
)

func TestIssuePersistsRefreshSession(t *testing.T) {
	db, svc, clock := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-issue@example.com")

	var pair TokenPair
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = svc.Issue(tx, admin.ID, admin.Email)
		return err
	}))

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	var session models.RefreshSession
	require.NoError(t, db.Take(&session, "admin_id = ?", admin.ID).Error)
	require.Equal(t, pair.RefreshToken, session.Token)
	require.True(t, session.ExpiresAt.After(clock.Now()))
}

func TestRotateInvalidatesOldToken(t *testing.T) {
	db, svc, clock := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-rotate@example.com")

	pair := issuePair(t, db, svc, admin)

	clock.Advance(5 * time.Minute)

	rotated, err := svc.Rotate(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.NotEqual(t, pair.AccessToken, rotated.AccessToken)

	// Replaying the consumed token is the theft signal, not plain 401.
	_, err = svc.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	// Exactly one live session remains.
	var count int64
	require.NoError(t, db.Model(&models.RefreshSession{}).Where("admin_id = ?", admin.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRotateRejectsForgedToken(t *testing.T) {
	_, svc, _ := setupSessionService(t)

	_, err := svc.Rotate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrSessionInvalidToken)
}

func TestRotateRejectsExpiredSession(t *testing.T) {
	db, svc, _ := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-expired@example.com")

	pair := issuePair(t, db, svc, admin)

	require.NoError(t, db.Model(&models.RefreshSession{}).
		Where("admin_id = ?", admin.ID).
		Update("expires_at", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).Error)

	_, err := svc.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)

	// The expired row is removed on the way out.
	var count int64
	require.NoError(t, db.Model(&models.RefreshSession{}).Where("admin_id = ?", admin.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestReissueMintsAccessWithoutRotating(t *testing.T) {
	db, svc, clock := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-reissue@example.com")

	pair := issuePair(t, db, svc, admin)

	clock.Advance(time.Minute)

	accessToken, adminID, err := svc.Reissue(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEqual(t, pair.AccessToken, accessToken)
	require.Equal(t, admin.ID, adminID)

	// The refresh session row and its expiry are untouched.
	var session models.RefreshSession
	require.NoError(t, db.Take(&session, "admin_id = ?", admin.ID).Error)
	require.Equal(t, pair.RefreshToken, session.Token)

	// The old refresh token still rotates afterwards.
	_, err = svc.Rotate(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestReissueReportsRevokedAndExpired(t *testing.T) {
	db, svc, _ := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-reissue-err@example.com")

	pair := issuePair(t, db, svc, admin)

	require.NoError(t, svc.Revoke(context.Background(), pair.RefreshToken))

	_, _, err := svc.Reissue(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	second := issuePair(t, db, svc, admin)
	require.NoError(t, db.Model(&models.RefreshSession{}).
		Where("token = ?", second.RefreshToken).
		Update("expires_at", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).Error)

	_, _, err = svc.Reissue(context.Background(), second.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeIsIdempotent(t *testing.T) {
	db, svc, _ := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-revoke@example.com")

	pair := issuePair(t, db, svc, admin)

	require.NoError(t, svc.Revoke(context.Background(), pair.RefreshToken))
	require.NoError(t, svc.Revoke(context.Background(), pair.RefreshToken))
	require.NoError(t, svc.Revoke(context.Background(), ""))

	_, err := svc.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestSessionCleanupExpired(t *testing.T) {
	db, svc, _ := setupSessionService(t)
	admin := createTestAdmin(t, db, "session-cleanup@example.com")

	issuePair(t, db, svc, admin)
	require.NoError(t, db.Model(&models.RefreshSession{}).
		Where("admin_id = ?", admin.ID).
		Update("expires_at", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).Error)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}

func setupSessionService(t *testing.T) (*gorm.DB, *SessionService, *testClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	jwtService, err := NewJWTService(JWTConfig{
		AccessSecret:    "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		Issuer:          "portfolio-api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtService, SessionConfig{Clock: clock.Now})
	require.NoError(t, err)

	return db, svc, clock
}

func issuePair(t *testing.T, db *gorm.DB, svc *SessionService, admin *models.Admin) TokenPair {
	t.Helper()

	var pair TokenPair
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = svc.Issue(tx, admin.ID, admin.Email)
		return err
	}))
	return pair
}

func createTestAdmin(t *testing.T, db *gorm.DB, email string) *models.Admin {
	t.Helper()

	hashed, err := crypto.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	admin := &models.Admin{
		Email:    email,
		Password: hashed,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
