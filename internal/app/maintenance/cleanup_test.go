package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	testutil "github.com/hoangtran/portfolio-api/internal/database/testutil"
	"github.com/hoangtran/portfolio-api/internal/models"
)

func TestCleanerRunOnceRemovesExpiredRows(t *testing.T) {
	db, cleaner, clock := setupCleaner(t)
	admin := seedAdmin(t, db)

	past := clock.current.Add(-time.Hour)
	future := clock.current.Add(time.Hour)

	require.NoError(t, db.Create(&models.OtpChallenge{AdminID: admin.ID, Code: "111111", ExpiresAt: past}).Error)
	require.NoError(t, db.Create(&models.TrustedDevice{AdminID: admin.ID, DeviceToken: "dead-device", ExpiresAt: past}).Error)
	require.NoError(t, db.Create(&models.TrustedDevice{AdminID: admin.ID, DeviceToken: "live-device", ExpiresAt: future}).Error)
	require.NoError(t, db.Create(&models.RefreshSession{AdminID: admin.ID, Token: "dead-session", ExpiresAt: past}).Error)
	require.NoError(t, db.Create(&models.RefreshSession{AdminID: admin.ID, Token: "live-session", ExpiresAt: future}).Error)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	assertCount := func(model any, expected int64) {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Equal(t, expected, count)
	}

	assertCount(&models.OtpChallenge{}, 0)
	assertCount(&models.TrustedDevice{}, 1)
	assertCount(&models.RefreshSession{}, 1)
}

func TestCleanerRunOnceWithNilServices(t *testing.T) {
	cleaner := NewCleaner(nil, nil, nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

func TestCleanerStartAndStop(t *testing.T) {
	_, cleaner, _ := setupCleaner(t)

	require.NoError(t, cleaner.Start())

	stopCtx := cleaner.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("expected scheduler to stop promptly")
	}
}

func TestCleanerRejectsBadSchedule(t *testing.T) {
	cleaner := NewCleaner(nil, nil, nil, WithSchedule("not a cron spec"))
	require.Error(t, cleaner.Start())
}

type cleanerClock struct {
	current time.Time
}

func (c *cleanerClock) Now() time.Time { return c.current }

func setupCleaner(t *testing.T) (*gorm.DB, *Cleaner, *cleanerClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := &cleanerClock{current: time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		AccessSecret:  "cleanup-access",
		RefreshSecret: "cleanup-refresh",
		Clock:         clock.Now,
	})
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{Clock: clock.Now})
	require.NoError(t, err)

	otp, err := iauth.NewOTPService(db, iauth.OTPConfig{Clock: clock.Now})
	require.NoError(t, err)

	devices, err := iauth.NewDeviceService(db, iauth.DeviceConfig{Clock: clock.Now})
	require.NoError(t, err)

	return db, NewCleaner(sessions, otp, devices), clock
}

func seedAdmin(t *testing.T, db *gorm.DB) *models.Admin {
	t.Helper()

	admin := &models.Admin{Email: "maintenance@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(admin).Error)
	return admin
}
