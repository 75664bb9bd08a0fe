package router

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", timeAgo(now.Add(-30*time.Second), now))
	assert.Equal(t, "1 minute ago", timeAgo(now.Add(-90*time.Second), now))
	assert.Equal(t, "3 hours ago", timeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", timeAgo(now.Add(-49*time.Hour), now))
	at := now.Add(-400 * 24 * time.Hour)
	assert.Equal(t, "1 year ago", timeAgo(&at, now))

	var missing *time.Time
	assert.Equal(t, "", timeAgo(missing, now))
	assert.Equal(t, "", timeAgo("yesterday", now))
}

func TestFormatDate(t *testing.T) {
	at := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "March 7, 2024", formatDate(at))
	assert.Equal(t, "March 7, 2024", formatDate(&at))

	var missing *time.Time
	assert.Equal(t, "", formatDate(missing))
}

func TestDict(t *testing.T) {
	dict := TemplateFuncs()["dict"].(func(...interface{}) (map[string]interface{}, error))

	m, err := dict("Article", 1, "Compact", true)
	require.NoError(t, err)
	assert.Equal(t, 1, m["Article"])
	assert.Equal(t, true, m["Compact"])

	_, err = dict("odd")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}

func TestLoadTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r, err := LoadTemplates("../../web/templates")
	require.NoError(t, err)
	for _, name := range []string{
		"article/home.html", "article/detail.html",
		"admin/login.html", "admin/list.html", "admin/edit.html",
		"page.html", "error.html",
	} {
		html, ok := r.Instance(name, nil).(render.HTML)
		require.True(t, ok, name)
		assert.NotNil(t, html.Template, name)
	}

	_, err = LoadTemplates(t.TempDir())
	assert.Error(t, err)
}
