package handlers

import (
	"net/http"
	"strings"

	"dailydog/internal/apperr"
	"dailydog/internal/middleware"
	"dailydog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Render injects the values every page layout uses.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := currentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// respondError answers a JSON API error. Server side failures carry the
// internal error as details and are logged.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": apperr.Message(err, fallback)}
	if status >= http.StatusInternalServerError {
		body["details"] = err.Error()
		log.Error(fallback, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	c.JSON(status, body)
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(middleware.CurrentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// clientIP is the first X-Forwarded-For hop, else X-Real-IP, else "unknown".
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.GetHeader("X-Real-IP")); real != "" {
		return real
	}
	return "unknown"
}

func userAgent(c *gin.Context) string {
	if ua := strings.TrimSpace(c.GetHeader("User-Agent")); ua != "" {
		return ua
	}
	return "unknown"
}
