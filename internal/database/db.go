package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
	"github.com/hoangtran/portfolio-api/pkg/crypto"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // SQLite database path when Driver == sqlite
	DSN      string // Optional DSN override
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = "sqlite"
	}

	switch driver {
	case "sqlite":
		return openSQLite(cfg)
	case "postgres", "postgresql":
		return openPostgres(cfg)
	case "mysql":
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SeedAdmin ensures the administrator account exists. The auth core treats
// the credential store as read-only, so this is the single provisioning path.
// The password is bcrypt-hashed before storage; an existing row is left
// untouched.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return errors.New("seed admin: email and password are required")
	}

	var count int64
	if err := db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("seed admin: count: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}

	admin := models.Admin{Email: email, Password: hashed}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: create: %w", err)
	}

	return nil
}
