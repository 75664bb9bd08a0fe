package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dailydog/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const imgurImageBase = "https://i.imgur.com"

// Shown to cross-site embedders instead of the image.
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Image hosted by The Daily Dog
  </text>
  <text x="50%" y="70%" font-family="Arial" font-size="12" fill="#adb5bd" text-anchor="middle">
    thedailydog.com
  </text>
</svg>`

var imageIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

type ImageHandler struct {
	store     *services.ImgurStore
	imageBase string
	client    *http.Client
	log       *zap.Logger
}

func NewImageHandler(store *services.ImgurStore, log *zap.Logger) *ImageHandler {
	return &ImageHandler{
		store:     store,
		imageBase: imgurImageBase,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

// Upload handles POST /api/upload (multipart field "image").
func (h *ImageHandler) Upload(c *gin.Context) {
	// 1. Read the multipart file
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Please choose an image to upload"})
		return
	}
	defer file.Close()

	// 2. Type and size checks before anything is read
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Only image files can be uploaded"})
		return
	}
	if header.Size > services.MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Images must be 10MB or smaller"})
		return
	}

	// the declared size can lie, so cap the read as well
	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil || len(data) > services.MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Could not read the image"})
		return
	}

	// 3. Push to Imgur; 503 when no client id is configured
	result, err := h.store.Upload(c.Request.Context(), data, header.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrImageStoreDisabled) {
			status = http.StatusServiceUnavailable
		}
		h.log.Error("image upload", zap.Error(err), zap.String("filename", header.Filename))
		c.JSON(status, gin.H{"success": false, "error": "Upload failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     result.URL,
		"id":      result.ID,
	})
}

// Proxy streams an Imgur image (GET /img/:id) so article pages never link
// to Imgur directly.
func (h *ImageHandler) Proxy(c *gin.Context) {
	// 1. Parse "<id>.<ext>", defaulting to .jpg
	name := c.Param("id")
	ext := filepath.Ext(name)
	id := strings.TrimSuffix(name, ext)
	if !imageIDPattern.MatchString(id) {
		c.String(http.StatusBadRequest, "Invalid image id")
		return
	}
	if ext == "" {
		ext = ".jpg"
	}

	// 2. Cross-site embeds get a placeholder
	if !isAllowedRequest(c) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Data(http.StatusOK, "image/svg+xml", []byte(hotlinkSVG))
		return
	}

	// 3. Fetch upstream with browser-like headers
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, h.imageBase+"/"+id+ext, nil)
	if err != nil {
		c.String(http.StatusInternalServerError, "Could not build image request")
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("image proxy", zap.Error(err), zap.String("id", name))
		c.String(http.StatusBadGateway, "Could not fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.String(resp.StatusCode, "Image not found")
		return
	}

	// 4. Stream the body through with a week of caching
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Header("Content-Type", ct)
	}
	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.log.Debug("image proxy copy", zap.Error(err))
	}
}

// isAllowedRequest uses the Sec-Fetch-* headers browsers attach to decide
// whether the image is being embedded by another site.
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	case "", "same-origin", "same-site", "none":
		return true
	}
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
