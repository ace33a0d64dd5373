package models

import (
	"time"
)

// User is an account that can author recipes and keep ledgers.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Avatar       string    `gorm:"size:255" json:"avatar"`
}

// Subscription is a directed follower -> followed edge.
type Subscription struct {
	ID         uint      `gorm:"primaryKey"`
	CreatedAt  time.Time
	FollowerID uint `gorm:"not null;uniqueIndex:idx_subscription_pair"`
	FollowedID uint `gorm:"not null;uniqueIndex:idx_subscription_pair;index"`
}
