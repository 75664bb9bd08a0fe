package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DefaultAuthorName is shown when an article has no (or a deleted) author.
const DefaultAuthorName = "Daily Dog Staff"

type Article struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Slug           string         `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt        string         `gorm:"type:text" json:"excerpt"`
	Content        string         `gorm:"type:text" json:"content"`
	ImageURL       *string        `json:"imageUrl"`
	SourceText     *string        `gorm:"type:text" json:"sourceText"`
	SourceImageURL *string        `json:"sourceImageUrl"`
	Topics         pq.StringArray `gorm:"type:text[]" json:"topics"`
	IsFeatured     bool           `gorm:"default:false;index" json:"isFeatured"`
	PublishedAt    *time.Time     `gorm:"index" json:"publishedAt"` // nil while draft
	AuthorID       *string        `gorm:"type:uuid;index" json:"authorId"`
	Author         *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author,omitempty"`
	Views          []View         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsPublished reports whether the article is visible on the public site.
func (a *Article) IsPublished() bool {
	return a.PublishedAt != nil
}

// AuthorName falls back to the staff byline when the author is gone.
func (a *Article) AuthorName() string {
	if a.Author != nil && a.Author.Name != "" {
		return a.Author.Name
	}
	return DefaultAuthorName
}

// HasTopic reports whether topic is one of the article's topics.
func (a *Article) HasTopic(topic string) bool {
	for _, t := range a.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
