package services

import (
	"context"
	"fmt"
	"time"

	"dailydog/internal/models"
	"dailydog/internal/utils"
)

const (
	featuredLimit = 4
	latestLimit   = 12
	frontPageTTL  = time.Minute
)

// FrontPage is everything the home page lists.
type FrontPage struct {
	Topic    string
	Featured []models.Article
	Latest   []models.Article
	Trending []models.Article
}

// FrontPageService assembles the home page and caches it per topic for a
// short while. Article writes purge the same cache.
type FrontPageService struct {
	articles ArticleRepository
	trending *TrendingRanker
	cache    *utils.PageCache
}

func NewFrontPageService(articles ArticleRepository, trending *TrendingRanker, cache *utils.PageCache) *FrontPageService {
	return &FrontPageService{articles: articles, trending: trending, cache: cache}
}

func (s *FrontPageService) Load(ctx context.Context, topic string) (*FrontPage, error) {
	key := "home:" + topic
	if s.cache != nil {
		if cached, ok := s.cache.Get(key).(*FrontPage); ok {
			return cached, nil
		}
	}

	featured, err := s.articles.List(ctx, ArticleQuery{
		PublishedOnly: true,
		FeaturedOnly:  true,
		Topic:         topic,
		Limit:         featuredLimit,
		WithAuthor:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("load featured articles: %w", err)
	}
	latest, err := s.articles.List(ctx, ArticleQuery{
		PublishedOnly: true,
		Topic:         topic,
		Limit:         latestLimit,
		WithAuthor:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("load latest articles: %w", err)
	}
	trending, err := s.trending.Trending(ctx, TrendingOptions{Topic: topic})
	if err != nil {
		return nil, err
	}

	page := &FrontPage{Topic: topic, Featured: featured, Latest: latest, Trending: trending}
	if s.cache != nil {
		s.cache.Set(key, page, frontPageTTL)
	}
	return page, nil
}
