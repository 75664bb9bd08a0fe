package services

import (
	"context"
	"time"

	"dailydog/internal/models"
)

// ArticleQuery filters article listings. The zero value lists every
// article, newest first.
type ArticleQuery struct {
	Topic         string
	FeaturedOnly  bool
	PublishedOnly bool // also orders by publish date
	ExcludeID     string
	Limit         int
	WithAuthor    bool
}

// ViewCount is the number of views an article received in a window.
type ViewCount struct {
	ArticleID string
	Count     int64
}

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	FindByIDs(ctx context.Context, ids []string, topic string) ([]models.Article, error)
	List(ctx context.Context, query ArticleQuery) ([]models.Article, error)
}

type ViewRepository interface {
	Create(ctx context.Context, view *models.View) error
	CountSince(ctx context.Context, since time.Time) ([]ViewCount, error)
}

type SubscriptionRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	CountActive(ctx context.Context) (int64, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
