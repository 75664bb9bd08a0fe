package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dailydog/internal/apperr"
	"dailydog/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler renders the admin pages. The forms talk to the JSON API.
type AdminHandler struct {
	articles *services.ArticleService
	subs     *services.SubscriptionService
	log      *zap.Logger
}

func NewAdminHandler(articles *services.ArticleService, subs *services.SubscriptionService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{articles: articles, subs: subs, log: log}
}

// Dashboard lists every article, drafts included.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	// Every article, newest first, with its author for the byline column
	articles, err := h.articles.List(ctx, services.ArticleQuery{WithAuthor: true})
	if err != nil {
		h.log.Error("list articles", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load articles")
		return
	}
	// Subscriber count is informational; a failure only logs
	subscribers, err := h.subs.ActiveCount(ctx)
	if err != nil {
		h.log.Warn("count subscribers", zap.Error(err))
	}

	Render(c, http.StatusOK, "admin/list.html", gin.H{
		"Title":       "Admin",
		"Articles":    articles,
		"Subscribers": subscribers,
	})
}

// NewArticle renders an empty editor.
func (h *AdminHandler) NewArticle(c *gin.Context) {
	Render(c, http.StatusOK, "admin/edit.html", gin.H{
		"Title":  "New article",
		"Topics": "",
	})
}

// EditArticle renders the editor for an existing article, drafts included.
func (h *AdminHandler) EditArticle(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			RenderError(c, http.StatusNotFound, "Article not found")
			return
		}
		h.log.Error("load article for edit", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the article")
		return
	}
	// the form edits topics as one comma separated field
	Render(c, http.StatusOK, "admin/edit.html", gin.H{
		"Title":   "Edit article",
		"Article": article,
		"Topics":  strings.Join(article.Topics, ", "),
	})
}
