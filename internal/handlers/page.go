package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"dailydog/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageHandler serves static content pages written in markdown.
type PageHandler struct {
	contentDir string
	log        *zap.Logger
}

func NewPageHandler(contentDir string, log *zap.Logger) *PageHandler {
	return &PageHandler{contentDir: contentDir, log: log}
}

// Privacy renders GET /privacy.
func (h *PageHandler) Privacy(c *gin.Context) {
	h.renderMarkdown(c, "privacy.md", "Privacy Policy")
}

func (h *PageHandler) renderMarkdown(c *gin.Context, file, title string) {
	// pages live under contentDir and are read on every request
	raw, err := os.ReadFile(filepath.Join(h.contentDir, file))
	if err != nil {
		h.log.Warn("content page missing", zap.String("file", file), zap.Error(err))
		RenderError(c, http.StatusNotFound, "Page not found")
		return
	}
	Render(c, http.StatusOK, "page.html", gin.H{
		"Title": title,
		"Body":  utils.RenderMarkdown(string(raw)),
	})
}
