package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts records login attempts by outcome
	// (success|otp_sent|failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_login_attempts_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"result"},
	)

	// OtpIssued counts one-time passcodes generated and emailed.
	OtpIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_otp_issued_total",
			Help: "Total number of OTP challenges issued",
		},
	)

	// ActiveSessions tracks refresh sessions currently held in the store.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_active_refresh_sessions",
			Help: "Number of active refresh sessions",
		},
	)

	// RevokedTokenDetections counts refresh attempts that presented a
	// validly-signed token absent from the store. This is the replay/theft
	// signal and deserves alerting, unlike routine expiry.
	RevokedTokenDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_revoked_token_detections_total",
			Help: "Refresh attempts with a signed but already-rotated token",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
