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

func TestTrustCreatesGrant(t *testing.T) {
	db, svc, clock := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-trust@example.com")

	device, err := svc.Trust(db, admin.ID, "  unit-test agent ")
	require.NoError(t, err)
	require.NotEmpty(t, device.DeviceToken)
	require.Equal(t, "unit-test agent", device.UserAgent)
	require.True(t, device.ExpiresAt.Equal(clock.Now().Add(30*24*time.Hour)))

	trusted, err := svc.Trusted(context.Background(), admin.ID, device.DeviceToken)
	require.NoError(t, err)
	require.True(t, trusted)
}

func TestTrustedRejectsUnknownAndEmptyTokens(t *testing.T) {
	db, svc, _ := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-unknown@example.com")

	trusted, err := svc.Trusted(context.Background(), admin.ID, "")
	require.NoError(t, err)
	require.False(t, trusted)

	trusted, err = svc.Trusted(context.Background(), admin.ID, "no-such-token")
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestTrustedScopedToOwner(t *testing.T) {
	db, svc, _ := setupDeviceService(t)
	alice := createTestAdmin(t, db, "device-alice@example.com")
	bob := createTestAdmin(t, db, "device-bob@example.com")

	device, err := svc.Trust(db, alice.ID, "browser")
	require.NoError(t, err)

	trusted, err := svc.Trusted(context.Background(), bob.ID, device.DeviceToken)
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestTrustedRejectsExpiredGrant(t *testing.T) {
	db, svc, clock := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-expired@example.com")

	device, err := svc.Trust(db, admin.ID, "browser")
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)

	trusted, err := svc.Trusted(context.Background(), admin.ID, device.DeviceToken)
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestForgetIsIdempotent(t *testing.T) {
	db, svc, _ := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-forget@example.com")

	device, err := svc.Trust(db, admin.ID, "browser")
	require.NoError(t, err)

	require.NoError(t, svc.Forget(context.Background(), admin.ID, device.DeviceToken))
	require.NoError(t, svc.Forget(context.Background(), admin.ID, device.DeviceToken))

	trusted, err := svc.Trusted(context.Background(), admin.ID, device.DeviceToken)
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestListReturnsGrantsNewestFirst(t *testing.T) {
	db, svc, _ := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-list@example.com")

	_, err := svc.Trust(db, admin.ID, "laptop")
	require.NoError(t, err)
	_, err = svc.Trust(db, admin.ID, "phone")
	require.NoError(t, err)

	devices, err := svc.List(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Len(t, devices, 2)
}

func TestDeviceCleanupExpired(t *testing.T) {
	db, svc, clock := setupDeviceService(t)
	admin := createTestAdmin(t, db, "device-cleanup@example.com")

	_, err := svc.Trust(db, admin.ID, "browser")
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, db.Model(&models.TrustedDevice{}).Count(&count).Error)
	require.Zero(t, count)
}

func setupDeviceService(t *testing.T) (*gorm.DB, *DeviceService, *testClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	svc, err := NewDeviceService(db, DeviceConfig{
		TrustTTL: 30 * 24 * time.Hour,
		Clock:    clock.Now,
	})
	require.NoError(t, err)

	return db, svc, clock
}
