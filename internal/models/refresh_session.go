package models

import "time"

// RefreshSession is one active, renewable login session. The token column
// holds the signed refresh JWT verbatim; rotation deletes the row outright,
// so a validly-signed token with no matching row is a replay signal.
type RefreshSession struct {
	BaseModel

	AdminID   string    `gorm:"type:uuid;not null;index" json:"admin_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
