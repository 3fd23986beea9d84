package database

import (
	"gorm.io/gorm"

	"github.com/hoangtran/portfolio-api/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.OtpChallenge{},
		&models.TrustedDevice{},
		&models.RefreshSession{},
	)
}
