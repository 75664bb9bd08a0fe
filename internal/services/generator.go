package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"dailydog/internal/apperr"
	"dailydog/internal/config"
	"dailydog/internal/metrics"
	"dailydog/internal/utils"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

const (
	maxTitleLength   = 70
	maxExcerptLength = 150

	defaultTitle   = "Breaking News Update"
	defaultExcerpt = "Recent developments have sparked significant discussion and analysis."
)

var (
	// ErrGeneratorNotConfigured means no OpenAI API key was provided.
	ErrGeneratorNotConfigured = apperr.New(errors.New("generator not configured"), "OpenAI API key not configured")

	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	headingPrefix    = regexp.MustCompile(`^#+\s*`)
	paragraphBreak   = regexp.MustCompile(`\n[ \t]*\n`)
)

const systemPrompt = `You are a staff writer for "The Daily Dog", a news site.
Rewrite the social media post you are given into a news article with a professional, factual tone.

Answer with a single JSON object and nothing else:
{
  "title": "headline, at most 70 characters",
  "excerpt": "summary, at most 150 characters",
  "content": "the article body as HTML using <p>, <h2> and <h3>",
  "imageUrl": "optional URL of a fitting photo, or an empty string"
}

Write three to five paragraphs. When you cite sources, mark them inline as [1], [2] and close
the content with a references list in exactly this form:
<h2>References</h2>
<ol>
  <li id="ref-1"><a href="https://example.com">Source title</a></li>
</ol>`

// GeneratedArticle is a draft produced from source material.
type GeneratedArticle struct {
	Title    string  `json:"title"`
	Excerpt  string  `json:"excerpt"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

type generatedPayload struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// ArticleGenerator drafts articles with the OpenAI API.
type ArticleGenerator struct {
	client         openai.Client
	configured     bool
	model          string
	imageModel     string
	generateImages bool
	timeout        time.Duration
	images         ImageStore
	log            *zap.Logger
}

// NewArticleGenerator builds a generator. images may be nil, in which case
// generated pictures are never persisted and the source image is used.
func NewArticleGenerator(cfg config.OpenAIConfig, images ImageStore, log *zap.Logger) *ArticleGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ArticleGenerator{
		client:         openai.NewClient(opts...),
		configured:     cfg.APIKey != "",
		model:          cfg.Model,
		imageModel:     cfg.ImageModel,
		generateImages: cfg.GenerateImages && images != nil,
		timeout:        timeout,
		images:         images,
		log:            log,
	}
}

// Generate turns source text into a draft article. The call is bounded by
// the configured timeout; a deadline hit is reported as apperr.ErrTimeout and
// a provider rate limit as apperr.ErrQuotaExceeded.
func (g *ArticleGenerator) Generate(ctx context.Context, sourceText, sourceImageURL string) (*GeneratedArticle, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, apperr.New(apperr.ErrValidation, "Source text is required")
	}
	if !g.configured {
		return nil, ErrGeneratorNotConfigured
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.complete(ctx, sourceText)
	if err != nil {
		err = g.classify(ctx, err)
		metrics.RecordGeneration(outcomeOf(err), started)
		return nil, err
	}

	article, parsed := parseGenerated(raw)
	article.ImageURL = g.chooseImage(ctx, article, sourceImageURL)

	outcome := metrics.OutcomeSuccess
	if !parsed {
		outcome = metrics.OutcomeFallback
		g.log.Warn("generator answer was not JSON, used fallback extraction", zap.Int("length", len(raw)))
	}
	metrics.RecordGeneration(outcome, started)
	g.log.Info("article generated",
		zap.String("title", article.Title),
		zap.Duration("took", time.Since(started)))
	return article.toResult(), nil
}

func (g *ArticleGenerator) complete(ctx context.Context, sourceText string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Please turn this post into a news article:\n\n" + sourceText),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps provider and deadline failures onto error kinds.
func (g *ArticleGenerator) classify(ctx context.Context, err error) error {
	var apiErr *openai.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		g.log.Warn("article generation timed out", zap.Duration("timeout", g.timeout))
		return apperr.New(apperr.ErrTimeout, "Article generation timed out. Please try again.")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests:
		g.log.Warn("OpenAI quota exceeded", zap.Error(err))
		return apperr.New(apperr.ErrQuotaExceeded, "OpenAI quota exceeded. Please try again later.")
	default:
		g.log.Error("article generation failed", zap.Error(err))
		return fmt.Errorf("generate article: %w", err)
	}
}

// chooseImage prefers a freshly generated and persisted image, then the
// caller's source image, then whatever the model suggested.
func (g *ArticleGenerator) chooseImage(ctx context.Context, article generatedPayload, sourceImageURL string) string {
	if g.generateImages {
		if url, err := g.generateImage(ctx, article); err != nil {
			g.log.Warn("image generation failed, falling back", zap.Error(err))
		} else {
			return url
		}
	}
	if s := strings.TrimSpace(sourceImageURL); s != "" {
		return s
	}
	return strings.TrimSpace(article.ImageURL)
}

func (g *ArticleGenerator) generateImage(ctx context.Context, article generatedPayload) (string, error) {
	prompt := fmt.Sprintf("A realistic editorial news photograph illustrating: %s. %s No text or lettering.",
		article.Title, article.Excerpt)
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.imageModel),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("generate image: no image returned")
	}

	name := Slugify(article.Title)
	if len(name) > 50 {
		name = strings.TrimRight(name[:50], "-")
	}
	return g.images.SaveFromURL(ctx, resp.Data[0].URL, name+"-"+time.Now().Format("20060102150405"))
}

// parseGenerated reads the model answer. The second result is false when
// the answer was not JSON and the fields were extracted heuristically, or
// when it was JSON without any field set (null, {}) and defaults were used.
func parseGenerated(raw string) (generatedPayload, bool) {
	text := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var out generatedPayload
	err := json.Unmarshal([]byte(text), &out)
	parsed := err == nil && out != (generatedPayload{})
	if err != nil {
		out = generatedPayload{
			Title:   extractTitle(raw),
			Excerpt: extractExcerpt(raw),
			Content: raw,
		}
	}

	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		out.Title = defaultTitle
	}
	out.Title = truncateRunes(out.Title, maxTitleLength)
	if strings.TrimSpace(out.Excerpt) == "" {
		out.Excerpt = defaultExcerpt
	}
	if strings.TrimSpace(out.Content) == "" {
		out.Content = raw
	}
	return out, parsed
}

func extractTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = utils.StripTags(headingPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" && !strings.HasPrefix(line, "```") {
			return line
		}
	}
	return defaultTitle
}

func extractExcerpt(raw string) string {
	first := ""
	for _, para := range paragraphBreak.Split(strings.TrimSpace(raw), -1) {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") || strings.HasPrefix(para, "```") {
			continue
		}
		first = utils.StripTags(para)
		break
	}
	if utf8.RuneCountInString(first) <= 20 {
		return defaultExcerpt
	}
	if utf8.RuneCountInString(first) > maxExcerptLength {
		return string([]rune(first)[:maxExcerptLength]) + "..."
	}
	return first
}

// truncateRunes cuts s to limit runes, the last three being an ellipsis.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}

func (p generatedPayload) toResult() *GeneratedArticle {
	return &GeneratedArticle{
		Title:    p.Title,
		Excerpt:  p.Excerpt,
		Content:  p.Content,
		ImageURL: optional(p.ImageURL),
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, apperr.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, apperr.ErrQuotaExceeded):
		return metrics.OutcomeQuota
	default:
		return metrics.OutcomeError
	}
}
