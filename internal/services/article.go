package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailydog/internal/apperr"
	"dailydog/internal/models"
	"dailydog/internal/utils"

	"go.uber.org/zap"
)

// maxSlugAttempts bounds how often a write is retried after another writer
// took the allocated slug first.
const maxSlugAttempts = 5

// ArticleInput is the body of the article create and update endpoints.
type ArticleInput struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Excerpt        string   `json:"excerpt"`
	Content        string   `json:"content"`
	ImageURL       string   `json:"imageUrl"`
	SourceText     string   `json:"sourceText"`
	SourceImageURL string   `json:"sourceImageUrl"`
	Topics         []string `json:"topics"`
	Topic          string   `json:"topic"`
	IsFeatured     bool     `json:"isFeatured"`
	Publish        bool     `json:"publish"`
}

// NormalizedTopics returns the topics array when one was sent, otherwise
// the single topic field. Values are trimmed, empties and repeats dropped.
func (in ArticleInput) NormalizedTopics() []string {
	raw := in.Topics
	if raw == nil && strings.TrimSpace(in.Topic) != "" {
		raw = []string{in.Topic}
	}
	topics := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	return topics
}

type ArticleService struct {
	articles ArticleRepository
	users    UserRepository
	slugs    *SlugAllocator
	cache    *utils.PageCache
	log      *zap.Logger
	now      func() time.Time
}

// NewArticleService wires the article workflows. cache may be nil.
func NewArticleService(articles ArticleRepository, users UserRepository, cache *utils.PageCache, log *zap.Logger) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		slugs:    NewSlugAllocator(articles),
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// Create stores a new article authored by authorID. It is published right
// away when in.Publish is set, otherwise saved as a draft.
func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*models.Article, error) {
	base, err := s.validate(ctx, authorID, in)
	if err != nil {
		return nil, err
	}

	article := &models.Article{AuthorID: &authorID}
	s.apply(article, in)
	if in.Publish {
		now := s.now()
		article.PublishedAt = &now
	}

	if err := s.saveWithSlug(ctx, article, base, "", s.articles.Create); err != nil {
		return nil, err
	}
	s.invalidate()
	s.log.Info("article created",
		zap.String("id", article.ID),
		zap.String("slug", article.Slug),
		zap.Bool("published", article.IsPublished()))
	return article, nil
}

// Update replaces the editable fields of article id. A published article
// stays published; the original author is kept.
func (s *ArticleService) Update(ctx context.Context, id, editorID string, in ArticleInput) (*models.Article, error) {
	base, err := s.validate(ctx, editorID, in)
	if err != nil {
		return nil, err
	}

	article, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Article not found")
		}
		return nil, err
	}

	s.apply(article, in)
	if in.Publish && article.PublishedAt == nil {
		now := s.now()
		article.PublishedAt = &now
	}
	if article.AuthorID == nil || *article.AuthorID == "" {
		article.AuthorID = &editorID
	}

	if err := s.saveWithSlug(ctx, article, base, article.ID, s.articles.Update); err != nil {
		return nil, err
	}
	s.invalidate()
	s.log.Info("article updated", zap.String("id", article.ID), zap.String("slug", article.Slug))
	return article, nil
}

// Delete removes the article together with its views.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Article not found")
		}
		return err
	}
	s.invalidate()
	s.log.Info("article deleted", zap.String("id", id))
	return nil
}

func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	return s.articles.FindByID(ctx, id)
}

// GetPublished looks up a public article. Drafts are reported as not found.
func (s *ArticleService) GetPublished(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished() {
		return nil, fmt.Errorf("article %q is a draft: %w", slug, apperr.ErrNotFound)
	}
	return article, nil
}

func (s *ArticleService) List(ctx context.Context, query ArticleQuery) ([]models.Article, error) {
	return s.articles.List(ctx, query)
}

// Related returns the latest published articles other than article.
func (s *ArticleService) Related(ctx context.Context, article *models.Article, limit int) ([]models.Article, error) {
	return s.articles.List(ctx, ArticleQuery{
		PublishedOnly: true,
		ExcludeID:     article.ID,
		Limit:         limit,
	})
}

// validate checks the input and the acting user and returns the base slug.
func (s *ArticleService) validate(ctx context.Context, userID string, in ArticleInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", apperr.New(apperr.ErrValidation, "Title is required")
	}
	base := Slugify(in.Slug)
	if base == "" {
		base = Slugify(in.Title)
	}
	if base == "" {
		return "", apperr.New(apperr.ErrValidation, "Slug must contain at least one letter or digit")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("article author missing", zap.String("user_id", userID))
			return "", apperr.New(apperr.ErrNotFound, "User not found in database")
		}
		return "", err
	}
	return base, nil
}

func (s *ArticleService) apply(article *models.Article, in ArticleInput) {
	article.Title = strings.TrimSpace(in.Title)
	article.Excerpt = strings.TrimSpace(in.Excerpt)
	article.Content = in.Content
	article.ImageURL = optional(in.ImageURL)
	article.SourceText = optional(in.SourceText)
	article.SourceImageURL = optional(in.SourceImageURL)
	article.Topics = in.NormalizedTopics()
	article.IsFeatured = in.IsFeatured
}

// saveWithSlug allocates a slug and writes the article, moving on to the
// next suffix when the unique index rejects a slug that was free when checked.
func (s *ArticleService) saveWithSlug(ctx context.Context, article *models.Article, base, excludeID string,
	save func(context.Context, *models.Article) error) error {
	start := 0
	for attempt := 1; ; attempt++ {
		slug, n, err := s.slugs.allocateFrom(ctx, base, excludeID, start)
		if err != nil {
			return fmt.Errorf("allocate slug: %w", err)
		}
		article.Slug = slug

		err = save(ctx, article)
		if !errors.Is(err, apperr.ErrDuplicate) {
			return err
		}
		if attempt == maxSlugAttempts {
			return apperr.New(apperr.ErrConflict, fmt.Sprintf("Could not allocate a unique slug for %q", base))
		}
		s.log.Warn("slug claimed concurrently, retrying",
			zap.String("slug", slug), zap.Int("attempt", attempt))
		start = n + 1
	}
}

func (s *ArticleService) invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
