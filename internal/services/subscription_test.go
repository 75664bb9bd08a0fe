package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailydog/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSubscriptionService() (*SubscriptionService, *fakeSubscriptions, *fakeMailer) {
	subs := newFakeSubscriptions()
	mailer := &fakeMailer{}
	svc := NewSubscriptionService(subs, mailer, zap.NewNop())
	return svc, subs, mailer
}

func TestSubscribeCreates(t *testing.T) {
	svc, subs, mailer := newTestSubscriptionService()

	res, err := svc.Subscribe(context.Background(), "  Reader@Example.COM ", Consent{IPAddress: "203.0.113.9", UserAgent: "Mozilla"})
	require.NoError(t, err)
	assert.False(t, res.Reactivated)

	sub := subs.byEmail["reader@example.com"]
	assert.True(t, sub.IsActive)
	assert.Equal(t, "203.0.113.9", sub.IPAddress)
	assert.Equal(t, "Mozilla", sub.UserAgent)
	assert.Equal(t, "website", sub.Source)
	assert.False(t, sub.SubscribedAt.IsZero())
	assert.Equal(t, []mailCall{{kind: "welcome", email: "reader@example.com"}}, mailer.calls)
}

func TestSubscribeTwiceConflicts(t *testing.T) {
	svc, _, _ := newTestSubscriptionService()
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@b.com", Consent{})
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, "A@B.com", Consent{})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "This email is already subscribed to our newsletter", apperr.Message(err, ""))
}

func TestResubscribeReactivates(t *testing.T) {
	svc, subs, mailer := newTestSubscriptionService()
	ctx := context.Background()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	_, err := svc.Subscribe(ctx, "a@b.com", Consent{Source: "footer"})
	require.NoError(t, err)
	_, err = svc.Unsubscribe(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, subs.byEmail["a@b.com"].UnsubscribedAt)

	later := first.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }
	res, err := svc.Subscribe(ctx, "a@b.com", Consent{IPAddress: "198.51.100.1", Source: "popup"})
	require.NoError(t, err)
	assert.True(t, res.Reactivated)

	sub := subs.byEmail["a@b.com"]
	assert.True(t, sub.IsActive)
	assert.Nil(t, sub.UnsubscribedAt)
	assert.Equal(t, later, sub.SubscribedAt)
	assert.Equal(t, "popup", sub.Source)
	assert.Equal(t, "198.51.100.1", sub.IPAddress)
	assert.Equal(t, "unknown", sub.UserAgent)
	assert.Equal(t, uint(1), sub.ID, "the record is reused")

	require.Len(t, mailer.calls, 3)
	assert.Equal(t, mailCall{kind: "welcome", email: "a@b.com", reactivated: true}, mailer.calls[2])
}

func TestUnsubscribeTransitions(t *testing.T) {
	svc, _, mailer := newTestSubscriptionService()
	ctx := context.Background()

	_, err := svc.Unsubscribe(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Subscribe(ctx, "a@b.com", Consent{})
	require.NoError(t, err)

	sub, err := svc.Unsubscribe(ctx, "A@b.COM")
	require.NoError(t, err)
	assert.False(t, sub.IsActive)
	assert.NotNil(t, sub.UnsubscribedAt)
	assert.Equal(t, "goodbye", mailer.calls[len(mailer.calls)-1].kind)

	_, err = svc.Unsubscribe(ctx, "a@b.com")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "This email is already unsubscribed", apperr.Message(err, ""))

	n, err := svc.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubscribeValidation(t *testing.T) {
	svc, subs, _ := newTestSubscriptionService()

	for _, email := range []string{"", "plainaddress", "a@b", "a b@c.com", "@c.com"} {
		_, err := svc.Subscribe(context.Background(), email, Consent{})
		assert.ErrorIs(t, err, apperr.ErrValidation, email)
		_, err = svc.Unsubscribe(context.Background(), email)
		assert.ErrorIs(t, err, apperr.ErrValidation, email)
	}
	assert.Empty(t, subs.byEmail)
}

func TestSubscribeLateDuplicateIsConflict(t *testing.T) {
	svc, subs, mailer := newTestSubscriptionService()
	subs.createErr = apperr.ErrDuplicate

	_, err := svc.Subscribe(context.Background(), "a@b.com", Consent{})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Empty(t, mailer.calls)

	subs.createErr = errors.New("db down")
	_, err = svc.Subscribe(context.Background(), "a@b.com", Consent{})
	assert.Equal(t, 500, apperr.HTTPStatus(err))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("reader@thedailydog.com"))
	assert.True(t, ValidEmail("first.last+news@sub.example.co.uk"))
	assert.False(t, ValidEmail("reader@localhost"))
}
