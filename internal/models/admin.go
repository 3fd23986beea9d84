package models

// Admin is the portfolio owner's identity record. Rows are provisioned
// out-of-band (seeding or manual insert); the auth core only reads them.
type Admin struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
}
