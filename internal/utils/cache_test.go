package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCache(t *testing.T) {
	c, err := NewPageCache(2)
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("home:", "home data", time.Minute)
	assert.Equal(t, "home data", c.Get("home:"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Get("home:"), "expired entries are dropped")

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Purge()
	assert.Nil(t, c.Get("a"))
	assert.Nil(t, c.Get("b"))
}
