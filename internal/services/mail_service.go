package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
	"strings"

	"dailydog/internal/config"

	"go.uber.org/zap"
)

// MailService sends newsletter emails over SMTP. It stays disabled unless
// every SMTP setting is present.
type MailService struct {
	cfg         config.SMTPConfig
	siteURL     string
	templateDir string
	enabled     bool
	log         *zap.Logger

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.SMTPConfig, siteURL, templatesDir string, log *zap.Logger) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Warn("mail service disabled: SMTP settings incomplete")
	}
	return &MailService{
		cfg:         cfg,
		siteURL:     strings.TrimSuffix(siteURL, "/"),
		templateDir: filepath.Join(templatesDir, "email"),
		enabled:     enabled,
		log:         log,
		send:        smtp.SendMail,
	}
}

func (s *MailService) Enabled() bool {
	return s.enabled
}

func (s *MailService) sendAsync(to []string, subject, body string) {
	if !s.enabled {
		return
	}
	msg := s.compose(to, subject, body)

	go func() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			s.log.Error("failed to send email", zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
			return
		}
		s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	}()
}

func (s *MailService) compose(to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&b, "From: The Daily Dog <%s>\r\n", s.cfg.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (s *MailService) render(name string, data any) (string, error) {
	t, err := template.ParseFiles(filepath.Join(s.templateDir, name))
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *MailService) SendNewsletterWelcome(email string, reactivated bool) {
	if !s.enabled {
		return
	}
	body, err := s.render("welcome.html", map[string]any{
		"Email":       email,
		"Reactivated": reactivated,
		"SiteURL":     s.siteURL,
	})
	if err != nil {
		s.log.Error("render welcome email", zap.Error(err))
		return
	}
	subject := "Welcome to The Daily Dog newsletter"
	if reactivated {
		subject = "Welcome back to The Daily Dog newsletter"
	}
	s.sendAsync([]string{email}, subject, body)
}

func (s *MailService) SendNewsletterGoodbye(email string) {
	if !s.enabled {
		return
	}
	body, err := s.render("goodbye.html", map[string]any{
		"Email":   email,
		"SiteURL": s.siteURL,
	})
	if err != nil {
		s.log.Error("render goodbye email", zap.Error(err))
		return
	}
	s.sendAsync([]string{email}, "You have been unsubscribed from The Daily Dog", body)
}
