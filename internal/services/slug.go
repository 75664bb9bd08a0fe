package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title: accents are folded, everything
// outside [a-z0-9] collapses to a single dash.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

type SlugAllocator struct {
	articles ArticleRepository
}

func NewSlugAllocator(articles ArticleRepository) *SlugAllocator {
	return &SlugAllocator{articles: articles}
}

// Allocate returns base, or base-1, base-2, ... whichever is the first slug
// no article other than excludeID uses. It only reads; the unique index on
// articles.slug stays the final arbiter.
func (a *SlugAllocator) Allocate(ctx context.Context, base, excludeID string) (string, error) {
	slug, _, err := a.allocateFrom(ctx, base, excludeID, 0)
	return slug, err
}

// allocateFrom starts probing at suffix n (0 means the bare base) and also
// returns the suffix it settled on.
func (a *SlugAllocator) allocateFrom(ctx context.Context, base, excludeID string, n int) (string, int, error) {
	for ; ; n++ {
		candidate := withSuffix(base, n)
		taken, err := a.articles.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", 0, err
		}
		if !taken {
			return candidate, n, nil
		}
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
	}
}

func withSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
