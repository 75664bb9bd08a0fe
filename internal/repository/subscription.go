package repository

import (
	"context"
	"fmt"

	"dailydog/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("find subscription: %w", translate(err))
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("create subscription: %w", translate(err))
	}
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("update subscription %d: %w", sub.ID, translate(err))
	}
	return nil
}

func (r *SubscriptionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return count, nil
}
