package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"dailydog/internal/apperr"
	"dailydog/internal/services"
	"dailydog/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const relatedLimit = 3

// ArticleHandler serves the public article pages and the article API.
type ArticleHandler struct {
	articles  *services.ArticleService
	frontPage *services.FrontPageService
	views     *services.ViewRecorder
	ipSalt    string
	siteURL   string
	log       *zap.Logger
}

// NewArticleHandler wires the article services into the handler.
func NewArticleHandler(articles *services.ArticleService, frontPage *services.FrontPageService,
	views *services.ViewRecorder, ipSalt, siteURL string, log *zap.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles:  articles,
		frontPage: frontPage,
		views:     views,
		ipSalt:    ipSalt,
		siteURL:   siteURL,
		log:       log,
	}
}

// Home lists featured, latest and trending articles, optionally for one
// topic (GET /?topic=).
func (h *ArticleHandler) Home(c *gin.Context) {
	// empty topic means the whole site
	topic := strings.TrimSpace(c.Query("topic"))
	page, err := h.frontPage.Load(c.Request.Context(), topic)
	if err != nil {
		h.log.Error("load front page", zap.Error(err), zap.String("topic", topic))
		RenderError(c, http.StatusInternalServerError, "Could not load articles")
		return
	}
	Render(c, http.StatusOK, "article/home.html", gin.H{
		"Title":    "The Daily Dog",
		"Topic":    page.Topic,
		"Featured": page.Featured,
		"Latest":   page.Latest,
		"Trending": page.Trending,
	})
}

// Detail renders a published article and records the view (GET /article/:slug).
func (h *ArticleHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. Drafts and unknown slugs both answer 404
	article, err := h.articles.GetPublished(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			RenderError(c, http.StatusNotFound, "Article not found")
			return
		}
		h.log.Error("load article", zap.Error(err), zap.String("slug", c.Param("slug")))
		RenderError(c, http.StatusInternalServerError, "Could not load the article")
		return
	}

	// 2. Record the view in the background, keyed by the hashed client IP
	h.views.Record(article.ID, utils.HashClientIP(clientIP(c), h.ipSalt), userAgent(c))

	// 3. Related stories are optional; the page renders without them
	related, err := h.articles.Related(ctx, article, relatedLimit)
	if err != nil {
		h.log.Warn("load related articles", zap.Error(err), zap.String("id", article.ID))
	}

	// 4. Source material is markdown, the body is stored HTML
	var source template.HTML
	if article.SourceText != nil {
		source = utils.RenderMarkdown(*article.SourceText)
	}

	Render(c, http.StatusOK, "article/detail.html", gin.H{
		"Title":        article.Title,
		"Description":  article.Excerpt,
		"Article":      article,
		"Content":      template.HTML(utils.NormalizeContent(article.Content)),
		"Source":       source,
		"Related":      related,
		"CanonicalURL": h.siteURL + "/article/" + article.Slug,
	})
}

// Create handles POST /api/articles.
func (h *ArticleHandler) Create(c *gin.Context) {
	var in services.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	// The service validates, sanitizes and picks a free slug
	article, err := h.articles.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, h.log, err, "Failed to create article")
		return
	}
	c.JSON(http.StatusOK, article)
}

// Update handles PUT /api/articles/:id.
func (h *ArticleHandler) Update(c *gin.Context) {
	var in services.ArticleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	// Slug changes are re-checked against other articles
	article, err := h.articles.Update(c.Request.Context(), c.Param("id"), currentUser(c).ID, in)
	if err != nil {
		respondError(c, h.log, err, "Failed to update article")
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /api/articles/:id. Views go first, then the article.
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.articles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to delete article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
