package model

import "time"

type ActivationToken struct {
	ID        int       `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:16;uniqueIndex;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
	UsedAt    *time.Time
	CreatedAt time.Time
}
