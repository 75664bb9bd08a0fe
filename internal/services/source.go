package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dailydog/internal/apperr"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const maxSourcePage = 5 << 20

// SourceMaterial is the readable part of a web page an article is drafted
// from.
type SourceMaterial struct {
	URL   string
	Title string
	Text  string
}

// SourceFetcher pulls source material for the generator from a URL.
type SourceFetcher struct {
	client *http.Client
	log    *zap.Logger
}

func NewSourceFetcher(log *zap.Logger) *SourceFetcher {
	return &SourceFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Fetch downloads pageURL and extracts its main text, one paragraph per
// block separated by blank lines.
func (f *SourceFetcher) Fetch(ctx context.Context, pageURL string) (*SourceMaterial, error) {
	parsed, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperr.New(apperr.ErrValidation, "Source URL must be an http(s) link")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; DailyDogBot/1.0; +https://thedailydog.com)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch source: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxSourcePage), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract source text: %w", err)
	}

	text, err := blocksToText(article.Content)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, apperr.New(apperr.ErrValidation, "No readable text found at the source URL")
	}

	f.log.Info("source fetched", zap.String("url", parsed.String()), zap.Int("chars", len(text)))
	return &SourceMaterial{URL: parsed.String(), Title: strings.TrimSpace(article.Title), Text: text}, nil
}

// blocksToText flattens extracted HTML into plain paragraphs.
func blocksToText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse extracted content: %w", err)
	}
	var paras []string
	doc.Find("p, h1, h2, h3, h4, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			paras = append(paras, t)
		}
	})
	if len(paras) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(paras, "\n\n"), nil
}
