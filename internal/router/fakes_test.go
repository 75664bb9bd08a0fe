package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dailydog/internal/apperr"
	"dailydog/internal/models"
	"dailydog/internal/services"

	"github.com/google/uuid"
)

type memArticles struct {
	mu    sync.Mutex
	byID  map[string]models.Article
	users *memUsers
}

func (m *memArticles) Create(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Slug == a.Slug {
			return fmt.Errorf("create article: %w", apperr.ErrDuplicate)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = *a
	return nil
}

func (m *memArticles) Update(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.byID {
		if id != a.ID && other.Slug == a.Slug {
			return fmt.Errorf("update article: %w", apperr.ErrDuplicate)
		}
	}
	a.UpdatedAt = time.Now()
	m.byID[a.ID] = *a
	return nil
}

func (m *memArticles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete article: %w", apperr.ErrNotFound)
	}
	delete(m.byID, id)
	return nil
}

func (m *memArticles) FindByID(_ context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("find article: %w", apperr.ErrNotFound)
}

func (m *memArticles) FindBySlug(_ context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Slug == slug {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("find article: %w", apperr.ErrNotFound)
}

func (m *memArticles) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.byID {
		if id != excludeID && a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memArticles) FindByIDs(_ context.Context, ids []string, topic string) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Article
	for _, id := range ids {
		if a, ok := m.byID[id]; ok && (topic == "" || a.HasTopic(topic)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memArticles) List(_ context.Context, q services.ArticleQuery) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Article
	for _, a := range m.byID {
		if (q.PublishedOnly && a.PublishedAt == nil) || (q.FeaturedOnly && !a.IsFeatured) ||
			(q.Topic != "" && !a.HasTopic(q.Topic)) || a.ID == q.ExcludeID {
			continue
		}
		if q.WithAuthor && a.AuthorID != nil && m.users != nil {
			if u, ok := m.users.byID[*a.AuthorID]; ok {
				a.Author = &u
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memArticles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memViews struct {
	mu    sync.Mutex
	views []models.View
}

func (m *memViews) Create(_ context.Context, v *models.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, *v)
	return nil
}

func (m *memViews) CountSince(_ context.Context, since time.Time) ([]services.ViewCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, v := range m.views {
		if !v.CreatedAt.Before(since) {
			counts[v.ArticleID]++
		}
	}
	var out []services.ViewCount
	for id, n := range counts {
		out = append(out, services.ViewCount{ArticleID: id, Count: n})
	}
	return out, nil
}

func (m *memViews) all() []models.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.View(nil), m.views...)
}

type memUsers struct {
	byID map[string]models.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return &u, nil
	}
	return nil, fmt.Errorf("find user: %w", apperr.ErrNotFound)
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", apperr.ErrNotFound)
}

type memSubscriptions struct {
	mu      sync.Mutex
	byEmail map[string]models.Subscription
}

func (m *memSubscriptions) FindByEmail(_ context.Context, email string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byEmail[email]; ok {
		return &s, nil
	}
	return nil, fmt.Errorf("find subscription: %w", apperr.ErrNotFound)
}

func (m *memSubscriptions) Create(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uint(len(m.byEmail) + 1)
	m.byEmail[s.Email] = *s
	return nil
}

func (m *memSubscriptions) Update(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[s.Email] = *s
	return nil
}

func (m *memSubscriptions) CountActive(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.byEmail {
		if s.IsActive {
			n++
		}
	}
	return n, nil
}
