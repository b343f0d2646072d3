// Package model defines database models
package model

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null;default:''" json:"lastName"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Account         Account          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActivationToken *ActivationToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens   []RefreshToken   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Transactions    []Transaction    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Account holds the credentials of a user. It's kept apart from User so that
// loading a user for display never pulls the password hash along.
type Account struct {
	UserID       string `gorm:"primaryKey;size:16"`
	PasswordHash string `gorm:"not null"`
	IsVerified   bool   `gorm:"not null;default:false"`
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}
