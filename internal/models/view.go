package models

import (
	"time"
)

// View is one recorded render of a public article page. Rows are never
// updated; they go away only when their article is deleted.
type View struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID string    `gorm:"type:uuid;not null;index" json:"articleId"`
	IPHash    string    `gorm:"size:64" json:"-"`
	UserAgent string    `gorm:"type:text" json:"userAgent"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
