package middleware

import (
	"errors"
	"net/http"

	"dailydog/internal/apperr"
	"dailydog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CurrentUserKey = "user"
	SessionUserKey = "user_id"
)

var errAnonymous = apperr.New(apperr.ErrUnauthorized, "Unauthorized")

// LoadUser puts the session's user into the context when the session
// points at an existing account. A stale session is cleared.
func LoadUser(users services.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(string)
		if ok && userID != "" {
			user, err := users.FindByID(c.Request.Context(), userID)
			if err == nil {
				c.Set(CurrentUserKey, user)
			} else if errors.Is(err, apperr.ErrNotFound) {
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// AuthRequired sends anonymous visitors of admin pages to the login form.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CurrentUserKey); !exists {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIAuthRequired answers 401 JSON for anonymous API calls.
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CurrentUserKey); !exists {
			c.AbortWithStatusJSON(apperr.HTTPStatus(errAnonymous), gin.H{"error": errAnonymous.Message})
			return
		}
		c.Next()
	}
}
