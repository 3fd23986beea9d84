package models

import "time"

// TrustedDevice records a "remember this device" grant. The device token is
// an opaque random value handed to the client as a long-lived cookie; a valid
// token lets future logins skip the OTP step.
type TrustedDevice struct {
	BaseModel

	AdminID     string    `gorm:"type:uuid;not null;index" json:"admin_id"`
	DeviceToken string    `gorm:"uniqueIndex;not null" json:"-"`
	UserAgent   string    `json:"user_agent"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`
}
