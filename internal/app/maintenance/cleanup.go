package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	"github.com/hoangtran/portfolio-api/pkg/logger"
)

const defaultSchedule = "@hourly"

// Cleaner coordinates the background expiry sweeps: stale OTP challenges,
// lapsed trusted-device grants, and expired refresh sessions. Expiry is
// already enforced on every read path, so the sweeps are storage hygiene.
type Cleaner struct {
	sessions *iauth.SessionService
	otp      *iauth.OTPService
	devices  *iauth.DeviceService
	cron     *cron.Cron
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil service skips
// the corresponding sweep.
func NewCleaner(sessions *iauth.SessionService, otp *iauth.OTPService, devices *iauth.DeviceService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions: sessions,
		otp:      otp,
		devices:  devices,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured sweeps sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.otp != nil {
		if removed, err := c.otp.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("removed expired otp challenges", zap.Int64("count", removed))
		}
	}

	if c.devices != nil {
		if removed, err := c.devices.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("removed expired device grants", zap.Int64("count", removed))
		}
	}

	if c.sessions != nil {
		if removed, err := c.sessions.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("removed expired refresh sessions", zap.Int64("count", removed))
		}
	}

	return errs
}
