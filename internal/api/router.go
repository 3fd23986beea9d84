package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/app"
	iauth "github.com/hoangtran/portfolio-api/internal/auth"
	"github.com/hoangtran/portfolio-api/internal/handlers"
	"github.com/hoangtran/portfolio-api/internal/middleware"
)

// Services bundles the auth components the router wires into handlers.
type Services struct {
	Auth     *iauth.AuthService
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Devices  *iauth.DeviceService
}

// NewRouter builds the Gin engine, wires middleware and registers the routes.
func NewRouter(db *gorm.DB, cfg *app.Config, svcs Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs.Auth == nil || svcs.JWT == nil || svcs.Sessions == nil || svcs.Devices == nil {
		return nil, fmt.Errorf("all auth services must be provided")
	}

	cookies := middleware.CookieSettings{
		Domain: cfg.Server.Cookies.Domain,
		Secure: cfg.Server.Cookies.Secure,
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svcs.Auth, svcs.JWT, svcs.Devices, cookies)

	// Public auth routes carry a tighter limit than the rest of the API.
	authLimit := middleware.RateLimit(cfg.Server.AuthRate.MaxRequests, cfg.Server.AuthRate.Window)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authLimit, authHandler.Login)
		auth.POST("/verify-otp", authLimit, authHandler.VerifyOTP)
		auth.POST("/refresh", authLimit, authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// Protected routes
	guard := middleware.SessionGuard(svcs.JWT, svcs.Sessions, cookies)

	admin := r.Group("/api/admin")
	admin.Use(guard)

	profileHandler := handlers.NewProfileHandler(db)
	admin.GET("/me", profileHandler.Me)

	deviceHandler := handlers.NewDeviceHandler(svcs.Devices)
	admin.GET("/devices", deviceHandler.List)
	admin.DELETE("/devices/:token", deviceHandler.Forget)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
