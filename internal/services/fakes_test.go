package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dailydog/internal/apperr"
	"dailydog/internal/models"

	"github.com/google/uuid"
)

type fakeArticles struct {
	mu       sync.Mutex
	byID     map[string]models.Article
	raceOn   map[string]int // slug -> times a write should lose to a concurrent writer
	checked  []string
	deleted  []string
	lastList ArticleQuery
}

func newFakeArticles(articles ...models.Article) *fakeArticles {
	f := &fakeArticles{byID: map[string]models.Article{}, raceOn: map[string]int{}}
	for _, a := range articles {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeArticles) conflict(a *models.Article) bool {
	if f.raceOn[a.Slug] > 0 {
		f.raceOn[a.Slug]--
		return true
	}
	for id, other := range f.byID {
		if id != a.ID && other.Slug == a.Slug {
			return true
		}
	}
	return false
}

func (f *fakeArticles) Create(_ context.Context, a *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if f.conflict(a) {
		return fmt.Errorf("create article: %w", apperr.ErrDuplicate)
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeArticles) Update(_ context.Context, a *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[a.ID]; !ok {
		return fmt.Errorf("update article: %w", apperr.ErrNotFound)
	}
	if f.conflict(a) {
		return fmt.Errorf("update article: %w", apperr.ErrDuplicate)
	}
	a.UpdatedAt = time.Now()
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeArticles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("delete article %s: %w", id, apperr.ErrNotFound)
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeArticles) FindByID(_ context.Context, id string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("find article %s: %w", id, apperr.ErrNotFound)
	}
	return &a, nil
}

func (f *fakeArticles) FindBySlug(_ context.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Slug == slug {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("find article by slug %q: %w", slug, apperr.ErrNotFound)
}

func (f *fakeArticles) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, slug)
	for id, a := range f.byID {
		if id != excludeID && a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// FindByIDs answers in reverse id order so callers must sort themselves.
func (f *fakeArticles) FindByIDs(_ context.Context, ids []string, topic string) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Article
	for _, id := range ids {
		a, ok := f.byID[id]
		if !ok || (topic != "" && !a.HasTopic(topic)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeArticles) List(_ context.Context, q ArticleQuery) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = q
	var out []models.Article
	for _, a := range f.byID {
		if q.PublishedOnly && a.PublishedAt == nil {
			continue
		}
		if q.FeaturedOnly && !a.IsFeatured {
			continue
		}
		if q.Topic != "" && !a.HasTopic(q.Topic) {
			continue
		}
		if q.ExcludeID != "" && a.ID == q.ExcludeID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.PublishedOnly {
			return out[i].PublishedAt.After(*out[j].PublishedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeArticles) get(id string) models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeViews struct {
	mu      sync.Mutex
	views   []models.View
	err     error
	release chan struct{} // when set, Create waits for it
}

func (f *fakeViews) Create(ctx context.Context, v *models.View) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.views = append(f.views, *v)
	return nil
}

// CountSince answers in map order, which is random.
func (f *fakeViews) CountSince(_ context.Context, since time.Time) ([]ViewCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for _, v := range f.views {
		if !v.CreatedAt.Before(since) {
			counts[v.ArticleID]++
		}
	}
	out := make([]ViewCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, ViewCount{ArticleID: id, Count: n})
	}
	return out, nil
}

func (f *fakeViews) add(articleID string, n int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.views = append(f.views, models.View{ArticleID: articleID, CreatedAt: at})
	}
}

func (f *fakeViews) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views)
}

type fakeUsers struct {
	byID map[string]models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("find user %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("find user by email: %w", apperr.ErrNotFound)
}

type fakeSubscriptions struct {
	byEmail   map[string]models.Subscription
	nextID    uint
	createErr error
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{byEmail: map[string]models.Subscription{}}
}

func (f *fakeSubscriptions) FindByEmail(_ context.Context, email string) (*models.Subscription, error) {
	s, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("find subscription: %w", apperr.ErrNotFound)
	}
	return &s, nil
}

func (f *fakeSubscriptions) Create(_ context.Context, s *models.Subscription) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[s.Email]; ok {
		return fmt.Errorf("create subscription: %w", apperr.ErrDuplicate)
	}
	f.nextID++
	s.ID = f.nextID
	f.byEmail[s.Email] = *s
	return nil
}

func (f *fakeSubscriptions) Update(_ context.Context, s *models.Subscription) error {
	f.byEmail[s.Email] = *s
	return nil
}

func (f *fakeSubscriptions) CountActive(context.Context) (int64, error) {
	var n int64
	for _, s := range f.byEmail {
		if s.IsActive {
			n++
		}
	}
	return n, nil
}

type mailCall struct {
	kind        string
	email       string
	reactivated bool
}

type fakeMailer struct {
	calls []mailCall
}

func (m *fakeMailer) SendNewsletterWelcome(email string, reactivated bool) {
	m.calls = append(m.calls, mailCall{kind: "welcome", email: email, reactivated: reactivated})
}

func (m *fakeMailer) SendNewsletterGoodbye(email string) {
	m.calls = append(m.calls, mailCall{kind: "goodbye", email: email})
}

func ptrTime(t time.Time) *time.Time { return &t }
