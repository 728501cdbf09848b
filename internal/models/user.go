package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// Email verification state. The token is a random hex string with a
	// short expiry; both fields are cleared once the email is verified.
	IsVerified               bool       `gorm:"default:false" json:"is_verified"`
	VerificationToken        string     `gorm:"size:64;index" json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`

	Categories   []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
