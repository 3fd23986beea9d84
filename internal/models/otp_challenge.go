package models

import "time"

// OtpChallenge stores one pending second-factor code for an admin.
// At most one live challenge exists per admin: issuing a new code first
// removes any prior row for the same owner.
type OtpChallenge struct {
	BaseModel

	AdminID   string    `gorm:"type:uuid;not null;index" json:"admin_id"`
	Code      string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
