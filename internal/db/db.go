package db

import (
	"errors"
	"fmt"
	"strings"

	"dailydog/internal/config"
	"dailydog/internal/models"
	"dailydog/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to PostgreSQL and migrates the schema. The returned handle
// is shared by every repository; there is no package-level connection.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("database migration completed")
	return conn, nil
}

// Migrate creates or updates the tables. Views reference articles with an
// ON DELETE CASCADE foreign key.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Article{},
		&models.View{},
		&models.Subscription{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedAdmin creates the configured admin account when it does not exist yet.
func SeedAdmin(conn *gorm.DB, cfg config.AdminConfig, log *zap.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		log.Info("admin seed skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	var existing models.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Debug("admin already seeded", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Email:        email,
		Name:         cfg.Name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin user created", zap.String("email", email))
	return nil
}
