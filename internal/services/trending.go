package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dailydog/internal/models"
)

// TrendingOptions narrows a trending lookup. Zero fields fall back to the
// ranker's defaults.
type TrendingOptions struct {
	Window time.Duration
	Limit  int
	Topic  string
}

// TrendingRanker ranks articles by how often they were viewed recently.
type TrendingRanker struct {
	views    ViewRepository
	articles ArticleRepository
	window   time.Duration
	limit    int
	now      func() time.Time
}

func NewTrendingRanker(views ViewRepository, articles ArticleRepository, window time.Duration, limit int) *TrendingRanker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 {
		limit = 6
	}
	return &TrendingRanker{
		views:    views,
		articles: articles,
		window:   window,
		limit:    limit,
		now:      time.Now,
	}
}

// Trending returns up to Limit articles ordered by views inside the window,
// most viewed first. The top ids are chosen before the topic filter runs,
// so a filtered result can be shorter than Limit.
func (t *TrendingRanker) Trending(ctx context.Context, opts TrendingOptions) ([]models.Article, error) {
	window, limit := opts.Window, opts.Limit
	if window <= 0 {
		window = t.window
	}
	if limit <= 0 {
		limit = t.limit
	}

	counts, err := t.views.CountSince(ctx, t.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("count recent views: %w", err)
	}
	if len(counts) == 0 {
		return []models.Article{}, nil
	}

	// ties go to the lower id so the widget does not shuffle between renders
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ArticleID < counts[j].ArticleID
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}

	rank := make(map[string]int, len(counts))
	ids := make([]string, len(counts))
	for i, c := range counts {
		rank[c.ArticleID] = i
		ids[i] = c.ArticleID
	}

	articles, err := t.articles.FindByIDs(ctx, ids, opts.Topic)
	if err != nil {
		return nil, fmt.Errorf("load trending articles: %w", err)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return rank[articles[i].ID] < rank[articles[j].ID]
	})
	return articles, nil
}
