package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dailydog/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sampleViewCount = 50

type sampleArticle struct {
	title, slug, excerpt, content, image, source string
	featured                                     bool
	age                                          time.Duration
}

var samples = []sampleArticle{
	{
		title:    "Breaking: Major Policy Announcement Shakes Washington",
		slug:     "breaking-major-policy-announcement-shakes-washington",
		excerpt:  "A significant policy change announced today has sent shockwaves through the nation's capital.",
		content:  "<p>In a stunning development that has caught many by surprise, a major policy announcement was made today that could reshape the political landscape for years to come.</p><p>The announcement came during a high-profile press conference after months of work behind closed doors.</p><p>Political analysts are already weighing in on the potential implications.</p>",
		image:    "https://images.unsplash.com/photo-1582213782179-e0d53f98f2ca?w=800&h=400&fit=crop",
		source:   "Just shared this important update on our Facebook page. The response has been overwhelming!",
		featured: true,
	},
	{
		title:   "Economic Indicators Show Promising Trends",
		slug:    "economic-indicators-show-promising-trends",
		excerpt: "Latest economic data reveals positive signals for the nation's financial outlook.",
		content: "<p>The latest economic indicators released this week paint an encouraging picture for the nation's economic future.</p><p>Employment rates and consumer confidence both show positive trends.</p><p>Economists remain cautiously optimistic.</p>",
		image:   "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=800&h=400&fit=crop",
		source:  "Shared this economic update on Facebook. Great discussion in the comments!",
		age:     24 * time.Hour,
	},
	{
		title:   "Local Community Initiative Gains National Attention",
		slug:    "local-community-initiative-gains-national-attention",
		excerpt: "A grassroots effort in a small town has captured the imagination of communities nationwide.",
		content: "<p>What started as a local initiative in a small Midwestern town has now gained national recognition for its approach to community building.</p><p>The program brings neighbors together through shared activities and mutual support.</p><p>Organizers hope other towns will copy the model.</p>",
		image:   "https://images.unsplash.com/photo-1521737604893-d14cc237f11d?w=800&h=400&fit=crop",
		source:  "This heartwarming story was shared on our Facebook page and got amazing engagement!",
		age:     48 * time.Hour,
	},
}

// sampleArticles returns the demo articles, published relative to now.
func sampleArticles(authorID *string, now time.Time) []models.Article {
	out := make([]models.Article, 0, len(samples))
	for _, s := range samples {
		published := now.Add(-s.age)
		image, source := s.image, s.source
		out = append(out, models.Article{
			Title:       s.title,
			Slug:        s.slug,
			Excerpt:     s.excerpt,
			Content:     s.content,
			ImageURL:    &image,
			SourceText:  &source,
			IsFeatured:  s.featured,
			PublishedAt: &published,
			AuthorID:    authorID,
		})
	}
	return out
}

// sampleViews spreads n views over the articles and the last 24 hours so
// the trending list has something to rank.
func sampleViews(articles []models.Article, now time.Time, n int) []models.View {
	if len(articles) == 0 {
		return nil
	}
	views := make([]models.View, 0, n)
	for i := 0; i < n; i++ {
		// every other view goes to the first article so it leads the ranking
		article := articles[i%len(articles)]
		if i%2 == 1 {
			article = articles[0]
		}
		views = append(views, models.View{
			ArticleID: article.ID,
			IPHash:    fmt.Sprintf("user_%d", i),
			UserAgent: "Sample User Agent",
			CreatedAt: now.Add(-time.Duration(i%24) * time.Hour),
		})
	}
	return views
}

// SeedSamples fills an empty database with demo articles by the admin and
// a batch of views. Nothing happens once any article exists.
func SeedSamples(conn *gorm.DB, adminEmail string, log *zap.Logger) error {
	var count int64
	if err := conn.Model(&models.Article{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count articles: %w", err)
	}
	if count > 0 {
		log.Debug("sample seed skipped: articles exist", zap.Int64("articles", count))
		return nil
	}

	var authorID *string
	var admin models.User
	err := conn.Where("email = ?", strings.ToLower(strings.TrimSpace(adminEmail))).First(&admin).Error
	switch {
	case err == nil:
		authorID = &admin.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	now := time.Now()
	return conn.Transaction(func(tx *gorm.DB) error {
		articles := sampleArticles(authorID, now)
		if err := tx.Omit("Author", "Views").Create(&articles).Error; err != nil {
			return fmt.Errorf("create sample articles: %w", err)
		}
		views := sampleViews(articles, now, sampleViewCount)
		if err := tx.Create(&views).Error; err != nil {
			return fmt.Errorf("create sample views: %w", err)
		}
		log.Info("sample content created", zap.Int("articles", len(articles)), zap.Int("views", len(views)))
		return nil
	})
}
