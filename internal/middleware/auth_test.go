package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailydog/internal/apperr"
	"dailydog/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUsers map[string]models.User

func (s stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("find user: %w", apperr.ErrNotFound)
	}
	return &u, nil
}

func (s stubUsers) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, apperr.ErrNotFound
}

func newRouter(users stubUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), RequestLogger(zap.NewNop()))
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("secret"))))
	r.GET("/login-as/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})
	r.Use(LoadUser(users))
	r.GET("/admin", AuthRequired(), func(c *gin.Context) {
		user := c.MustGet(CurrentUserKey).(*models.User)
		c.String(http.StatusOK, user.Name)
	})
	r.POST("/api/thing", APIAuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAnonymousRequests(t *testing.T) {
	r := newRouter(stubUsers{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/thing", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	assert.ErrorIs(t, errAnonymous, apperr.ErrUnauthorized)
}

func TestSessionUserIsLoaded(t *testing.T) {
	r := newRouter(stubUsers{"u1": {ID: "u1", Name: "Editor"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-as/u1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Editor", w.Body.String())
}

func TestDeletedUserSessionIsRejected(t *testing.T) {
	r := newRouter(stubUsers{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-as/gone", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecovery(t *testing.T) {
	r := newRouter(stubUsers{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
