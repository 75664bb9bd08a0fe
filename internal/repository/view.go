package repository

import (
	"context"
	"fmt"
	"time"

	"dailydog/internal/models"
	"dailydog/internal/services"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

type ViewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

func (r *ViewRepository) Create(ctx context.Context, view *models.View) error {
	if err := r.db.WithContext(ctx).Create(view).Error; err != nil {
		return fmt.Errorf("record view of %s: %w", view.ArticleID, err)
	}
	return nil
}

// CountSince groups views created at or after since by article.
func (r *ViewRepository) CountSince(ctx context.Context, since time.Time) ([]services.ViewCount, error) {
	query, args, err := countSinceQuery(since)
	if err != nil {
		return nil, fmt.Errorf("build view count query: %w", err)
	}
	var counts []services.ViewCount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	return counts, nil
}

func countSinceQuery(since time.Time) (string, []interface{}, error) {
	return sq.Select("article_id", "COUNT(*) AS count").
		From("views").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("article_id").
		OrderBy("count DESC", "article_id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
