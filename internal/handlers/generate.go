package handlers

import (
	"net/http"
	"strings"

	"dailydog/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type generateRequest struct {
	SourceText     string `json:"sourceText"`
	SourceImageURL string `json:"sourceImageUrl"`
	SourceURL      string `json:"sourceUrl"`
}

// GenerateHandler drafts articles from source material.
type GenerateHandler struct {
	generator *services.ArticleGenerator
	fetcher   *services.SourceFetcher
	log       *zap.Logger
}

func NewGenerateHandler(generator *services.ArticleGenerator, fetcher *services.SourceFetcher, log *zap.Logger) *GenerateHandler {
	return &GenerateHandler{generator: generator, fetcher: fetcher, log: log}
}

// Generate handles POST /api/generate-article. When no source text is sent
// but a source URL is, the page's readable text is used instead.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source text is required"})
		return
	}

	// 1. Resolve the source text, fetching the URL when only a link was pasted
	sourceText := strings.TrimSpace(req.SourceText)
	if sourceText == "" && strings.TrimSpace(req.SourceURL) != "" && h.fetcher != nil {
		src, err := h.fetcher.Fetch(c.Request.Context(), req.SourceURL)
		if err != nil {
			respondError(c, h.log, err, "Failed to fetch source URL")
			return
		}
		sourceText = src.Text
		if src.Title != "" {
			sourceText = src.Title + "\n\n" + sourceText
		}
	}
	if sourceText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source text is required"})
		return
	}

	// 2. Draft the article; a reply that is not JSON still yields a draft
	article, err := h.generator.Generate(c.Request.Context(), sourceText, req.SourceImageURL)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate article")
		return
	}
	// 3. Nothing is stored; the editor reviews the draft first
	c.JSON(http.StatusOK, article)
}
