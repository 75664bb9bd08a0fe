package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dailydog/internal/apperr"
	"dailydog/internal/metrics"
	"dailydog/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultSubscriptionSource = "website"
	unknownClient             = "unknown"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Mailer sends the newsletter lifecycle emails.
type Mailer interface {
	SendNewsletterWelcome(email string, reactivated bool)
	SendNewsletterGoodbye(email string)
}

// Consent is the metadata stored with a subscription for GDPR purposes.
type Consent struct {
	IPAddress string
	UserAgent string
	Source    string
}

// SubscribeResult tells whether a subscribe call created a new record or
// brought back an old one.
type SubscribeResult struct {
	Subscription *models.Subscription
	Reactivated  bool
}

// SubscriptionService runs the newsletter state machine:
// none -> active on subscribe, inactive -> active on subscribe,
// active -> inactive on unsubscribe. Everything else is rejected.
type SubscriptionService struct {
	subs   SubscriptionRepository
	mailer Mailer
	log    *zap.Logger
	now    func() time.Time
}

// NewSubscriptionService wires the service. mailer may be nil.
func NewSubscriptionService(subs SubscriptionRepository, mailer Mailer, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, mailer: mailer, log: log, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is a syntactic check only: something@domain.suffix.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func (s *SubscriptionService) Subscribe(ctx context.Context, email string, consent Consent) (*SubscribeResult, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	consent = consent.withDefaults()

	existing, err := s.subs.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.IsActive:
		return nil, apperr.New(apperr.ErrConflict, "This email is already subscribed to our newsletter")
	case err == nil:
		return s.reactivate(ctx, existing, consent)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	sub := &models.Subscription{
		Email:        email,
		IsActive:     true,
		SubscribedAt: s.now(),
		IPAddress:    consent.IPAddress,
		UserAgent:    consent.UserAgent,
		Source:       consent.Source,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.New(apperr.ErrConflict, "This email is already subscribed to our newsletter")
		}
		return nil, err
	}

	metrics.RecordSubscription(metrics.ActionSubscribe)
	s.log.Info("newsletter subscription created", zap.Uint("id", sub.ID), zap.String("source", sub.Source))
	if s.mailer != nil {
		s.mailer.SendNewsletterWelcome(sub.Email, false)
	}
	return &SubscribeResult{Subscription: sub}, nil
}

func (s *SubscriptionService) reactivate(ctx context.Context, sub *models.Subscription, consent Consent) (*SubscribeResult, error) {
	sub.IsActive = true
	sub.SubscribedAt = s.now()
	sub.UnsubscribedAt = nil
	sub.IPAddress = consent.IPAddress
	sub.UserAgent = consent.UserAgent
	sub.Source = consent.Source
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}

	metrics.RecordSubscription(metrics.ActionReactivate)
	s.log.Info("newsletter subscription reactivated", zap.Uint("id", sub.ID))
	if s.mailer != nil {
		s.mailer.SendNewsletterWelcome(sub.Email, true)
	}
	return &SubscribeResult{Subscription: sub, Reactivated: true}, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, email string) (*models.Subscription, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Email not found in our subscription list")
		}
		return nil, err
	}
	if !sub.IsActive {
		return nil, apperr.New(apperr.ErrConflict, "This email is already unsubscribed")
	}

	now := s.now()
	sub.IsActive = false
	sub.UnsubscribedAt = &now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("deactivate subscription: %w", err)
	}

	metrics.RecordSubscription(metrics.ActionUnsubscribe)
	s.log.Info("newsletter subscription deactivated", zap.Uint("id", sub.ID))
	if s.mailer != nil {
		s.mailer.SendNewsletterGoodbye(sub.Email)
	}
	return sub, nil
}

// ActiveCount is shown on the admin dashboard.
func (s *SubscriptionService) ActiveCount(ctx context.Context) (int64, error) {
	return s.subs.CountActive(ctx)
}

func checkEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", apperr.New(apperr.ErrValidation, "Valid email address is required")
	}
	if !ValidEmail(email) {
		return "", apperr.New(apperr.ErrValidation, "Please provide a valid email address")
	}
	return email, nil
}

func (c Consent) withDefaults() Consent {
	c.IPAddress = strings.TrimSpace(c.IPAddress)
	if c.IPAddress == "" {
		c.IPAddress = unknownClient
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = unknownClient
	}
	c.Source = strings.TrimSpace(c.Source)
	if c.Source == "" {
		c.Source = DefaultSubscriptionSource
	}
	return c
}
