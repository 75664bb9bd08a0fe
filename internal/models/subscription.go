package models

import (
	"time"
)

// Subscription is a newsletter opt-in. Email is stored lower-cased.
type Subscription struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	IsActive       bool       `gorm:"default:true;index" json:"isActive"`
	SubscribedAt   time.Time  `gorm:"not null" json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt"`
	IPAddress      string     `gorm:"size:64" json:"-"` // consent record
	UserAgent      string     `gorm:"type:text" json:"-"`
	Source         string     `gorm:"size:100;default:'website'" json:"source"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
