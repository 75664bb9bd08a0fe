package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailydog/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testContext(headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c, w
}

func TestClientIP(t *testing.T) {
	c, _ := testContext(map[string]string{"X-Forwarded-For": " 198.51.100.7 , 10.0.0.1", "X-Real-IP": "10.0.0.2"})
	assert.Equal(t, "198.51.100.7", clientIP(c))

	c, _ = testContext(map[string]string{"X-Real-IP": "10.0.0.2"})
	assert.Equal(t, "10.0.0.2", clientIP(c))

	c, _ = testContext(nil)
	assert.Equal(t, "unknown", clientIP(c))
	assert.Equal(t, "unknown", userAgent(c))
}

func TestRespondError(t *testing.T) {
	c, w := testContext(nil)
	respondError(c, zap.NewNop(), apperr.New(apperr.ErrValidation, "Title is required"), "Failed")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Title is required"}`, w.Body.String())

	c, w = testContext(nil)
	respondError(c, zap.NewNop(), errors.New("connection refused"), "Failed to create article")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to create article","details":"connection refused"}`, w.Body.String())
}

func TestLeadingBlocks(t *testing.T) {
	content := "<h2>Intro</h2><p>One</p><p>   </p><ul><li>Two</li></ul><p>Three</p>"
	assert.Equal(t, "<h2>Intro</h2>\n<p>One</p>\n<ul><li>Two</li></ul>", leadingBlocks(content, 3))
	assert.Equal(t, "", leadingBlocks("", 3))
}
