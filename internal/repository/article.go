package repository

import (
	"context"
	"fmt"

	"dailydog/internal/apperr"
	"dailydog/internal/models"
	"dailydog/internal/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error; err != nil {
		return fmt.Errorf("create article: %w", translate(err))
	}
	return nil
}

func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(article).Error; err != nil {
		return fmt.Errorf("update article %s: %w", article.ID, translate(err))
	}
	return nil
}

// Delete removes the article's views and then the article in one transaction.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete article %s: %w", id, apperr.ErrNotFound)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.View{}).Error; err != nil {
			return fmt.Errorf("delete views of %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Article{})
		if res.Error != nil {
			return fmt.Errorf("delete article %s: %w", id, translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete article %s: %w", id, apperr.ErrNotFound)
		}
		return nil
	})
}

func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*models.Article, error) {
	if !validID(id) {
		return nil, fmt.Errorf("find article %s: %w", id, apperr.ErrNotFound)
	}
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&article).Error; err != nil {
		return nil, fmt.Errorf("find article %s: %w", id, translate(err))
	}
	return &article, nil
}

func (r *ArticleRepository) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Author").Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, fmt.Errorf("find article by slug %q: %w", slug, translate(err))
	}
	return &article, nil
}

// SlugTaken reports whether any article other than excludeID uses slug.
func (r *ArticleRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Article{}).Where("slug = ?", slug)
	if validID(excludeID) {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug %q: %w", slug, err)
	}
	return count > 0, nil
}

// FindByIDs returns the articles with the given ids, in no particular order.
func (r *ArticleRepository) FindByIDs(ctx context.Context, ids []string, topic string) ([]models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Where("id IN ?", ids)
	if topic != "" {
		q = q.Where("? = ANY(topics)", topic)
	}
	var articles []models.Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("find articles by ids: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepository) List(ctx context.Context, query services.ArticleQuery) ([]models.Article, error) {
	q := r.db.WithContext(ctx).Model(&models.Article{})
	if query.PublishedOnly {
		q = q.Where("published_at IS NOT NULL").Order("published_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	if query.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if query.Topic != "" {
		q = q.Where("? = ANY(topics)", query.Topic)
	}
	if query.ExcludeID != "" {
		q = q.Where("id <> ?", query.ExcludeID)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.WithAuthor {
		q = q.Preload("Author")
	}

	var articles []models.Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}
