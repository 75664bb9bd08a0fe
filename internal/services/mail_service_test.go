package services

import (
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dailydog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMailServiceDisabledWithoutSMTP(t *testing.T) {
	s := NewMailService(config.SMTPConfig{Host: "smtp.example.com"}, "https://thedailydog.com", t.TempDir(), zap.NewNop())
	assert.False(t, s.Enabled())

	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("disabled mailer must not send")
		return nil
	}
	s.SendNewsletterWelcome("a@b.com", false)
	s.SendNewsletterGoodbye("a@b.com")
}

func TestMailServiceSendsWelcome(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "email"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "email", "welcome.html"),
		[]byte(`{{if .Reactivated}}Welcome back{{else}}Welcome{{end}} {{.Email}} {{.SiteURL}}`), 0o600))

	s := NewMailService(config.SMTPConfig{
		Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "news@thedailydog.com",
	}, "https://thedailydog.com/", dir, zap.NewNop())
	require.True(t, s.Enabled())

	var mu sync.Mutex
	var sent []string
	var addr string
	s.send = func(a string, _ smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		addr = a
		sent = append(sent, string(msg))
		return nil
	}

	s.SendNewsletterWelcome("reader@example.com", true)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sent) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Contains(t, sent[0], "To: reader@example.com\r\n")
	assert.Contains(t, sent[0], "Subject: Welcome back to The Daily Dog newsletter\r\n")
	assert.True(t, strings.HasSuffix(sent[0], "Welcome back reader@example.com https://thedailydog.com"))
}
