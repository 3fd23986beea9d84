package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/hoangtran/portfolio-api/internal/database/testutil"
	"github.com/hoangtran/portfolio-api/internal/models"
)

func TestIssueCreatesSingleChallenge(t *testing.T) {
	db, svc, _ := setupOTPService(t)
	admin := createTestAdmin(t, db, "otp-issue@example.com")

	code, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Len(t, code, 6)

	// A second issue supersedes the first.
	second, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)

	var challenges []models.OtpChallenge
	require.NoError(t, db.Where("admin_id = ?", admin.ID).Find(&challenges).Error)
	require.Len(t, challenges, 1)
	require.Equal(t, second, challenges[0].Code)
}

func TestConsumeDeletesChallenge(t *testing.T) {
	db, svc, _ := setupOTPService(t)
	admin := createTestAdmin(t, db, "otp-consume@example.com")

	code, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(tx, admin.ID, code)
	}))

	var count int64
	require.NoError(t, db.Model(&models.OtpChallenge{}).Where("admin_id = ?", admin.ID).Count(&count).Error)
	require.Zero(t, count)

	// The code is single-use.
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(tx, admin.ID, code)
	})
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestConsumeRejectsWrongCode(t *testing.T) {
	db, svc, _ := setupOTPService(t)
	admin := createTestAdmin(t, db, "otp-wrong@example.com")

	code, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(tx, admin.ID, wrong)
	})
	require.ErrorIs(t, err, ErrOTPInvalid)

	// The stored challenge survives a failed attempt.
	var count int64
	require.NoError(t, db.Model(&models.OtpChallenge{}).Where("admin_id = ?", admin.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestConsumeRejectsExpiredCode(t *testing.T) {
	db, svc, clock := setupOTPService(t)
	admin := createTestAdmin(t, db, "otp-expired@example.com")

	code, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(tx, admin.ID, code)
	})
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestConsumeScopedToAdmin(t *testing.T) {
	db, svc, _ := setupOTPService(t)
	alice := createTestAdmin(t, db, "otp-alice@example.com")
	bob := createTestAdmin(t, db, "otp-bob@example.com")

	code, err := svc.Issue(context.Background(), alice.ID)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(tx, bob.ID, code)
	})
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestOTPCleanupExpired(t *testing.T) {
	db, svc, clock := setupOTPService(t)
	admin := createTestAdmin(t, db, "otp-cleanup@example.com")

	_, err := svc.Issue(context.Background(), admin.ID)
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, removed)

	clock.Advance(10 * time.Minute)

	removed, err = svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}

func setupOTPService(t *testing.T) (*gorm.DB, *OTPService, *testClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	svc, err := NewOTPService(db, OTPConfig{
		Digits: 6,
		TTL:    5 * time.Minute,
		Clock:  clock.Now,
	})
	require.NoError(t, err)

	return db, svc, clock
}
