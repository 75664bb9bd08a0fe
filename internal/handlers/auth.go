package handlers

import (
	"net/http"

	"dailydog/internal/middleware"
	"dailydog/internal/services"
	"dailydog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler signs editors in and out with a cookie session.
type AuthHandler struct {
	users services.UserRepository
	log   *zap.Logger
}

func NewAuthHandler(users services.UserRepository, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// ShowLogin renders the sign-in form (GET /admin/login).
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	// already signed in
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	Render(c, http.StatusOK, "admin/login.html", gin.H{"Title": "Sign in", "Email": ""})
}

// Login checks the credentials and stores the user id in the session
// (POST /admin/login).
func (h *AuthHandler) Login(c *gin.Context) {
	email := services.NormalizeEmail(c.PostForm("email"))
	password := c.PostForm("password")

	// Unknown email and wrong password get the same answer
	user, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		h.log.Info("admin login failed", zap.String("email", email))
		Render(c, http.StatusUnauthorized, "admin/login.html", gin.H{
			"Title": "Sign in",
			"Error": "Invalid email or password",
			"Email": email,
		})
		return
	}

	// Save the session
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.log.Error("save session", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not sign you in")
		return
	}
	h.log.Info("admin signed in", zap.String("user_id", user.ID))
	c.Redirect(http.StatusFound, "/admin")
}

// Logout drops the session (GET or POST /admin/logout).
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}
