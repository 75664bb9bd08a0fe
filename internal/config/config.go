package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "DAILYDOG_CONFIG"

// Config holds every setting the server reads at boot.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Imgur    ImgurConfig    `yaml:"imgur"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Admin    AdminConfig    `yaml:"admin"`
	Trending TrendingConfig `yaml:"trending"`
	Views    ViewsConfig    `yaml:"views"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	SiteURL       string `yaml:"siteUrl"`
	SessionSecret string `yaml:"sessionSecret"`
	TemplatesDir  string `yaml:"templatesDir"`
	ContentDir    string `yaml:"contentDir"`
	StaticDir     string `yaml:"staticDir"`
	GinMode       string `yaml:"ginMode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// OpenAIConfig configures the article generator.
type OpenAIConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	ImageModel     string        `yaml:"imageModel"`
	GenerateImages bool          `yaml:"generateImages"`
	Timeout        time.Duration `yaml:"timeout"`
}

type ImgurConfig struct {
	ClientID string `yaml:"clientId"`
}

// SMTPConfig is optional; the mailer stays disabled unless every field is set.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// AdminConfig seeds the first admin account.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// SeedSamples adds demo articles and views to an empty database.
	SeedSamples bool `yaml:"seed_samples"`
}

type TrendingConfig struct {
	Window time.Duration `yaml:"window"`
	Limit  int           `yaml:"limit"`
}

type ViewsConfig struct {
	QueueSize int    `yaml:"queueSize"`
	IPSalt    string `yaml:"ipSalt"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env (if present), then the optional YAML file named by
// DAILYDOG_CONFIG, then applies environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.Server.SiteURL = strings.TrimSuffix(cfg.Server.SiteURL, "/")
	return cfg, nil
}

// Default returns the settings used for local development.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:          "8080",
			SiteURL:       "https://thedailydog.com",
			SessionSecret: "secret_key_change_me",
			TemplatesDir:  "./web/templates",
			ContentDir:    "./web/content",
			StaticDir:     "./web/static",
			GinMode:       "release",
		},
		Database: DatabaseConfig{
			DSN: "host=localhost user=postgres password=postgres dbname=dailydog port=5432 sslmode=disable TimeZone=UTC",
		},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4o-mini",
			ImageModel: "dall-e-3",
			Timeout:    60 * time.Second,
		},
		Admin: AdminConfig{
			Email: "admin@thedailydog.com",
			Name:  "Admin User",
		},
		Trending: TrendingConfig{
			Window: 24 * time.Hour,
			Limit:  6,
		},
		Views: ViewsConfig{
			QueueSize: 1024,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.SiteURL, "SITE_URL")
	setString(&c.Server.SessionSecret, "SESSION_SECRET")
	setString(&c.Server.TemplatesDir, "TEMPLATES_DIR")
	setString(&c.Server.ContentDir, "CONTENT_DIR")
	setString(&c.Server.GinMode, "GIN_MODE")

	setString(&c.Database.DSN, "DATABASE_URL")

	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.ImageModel, "OPENAI_IMAGE_MODEL")
	setBool(&c.OpenAI.GenerateImages, "OPENAI_GENERATE_IMAGES")
	setDuration(&c.OpenAI.Timeout, "OPENAI_TIMEOUT")

	setString(&c.Imgur.ClientID, "IMGUR_CLIENT_ID")

	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USER")
	setString(&c.SMTP.Password, "SMTP_PASS")
	setString(&c.SMTP.From, "SMTP_FROM")

	setString(&c.Admin.Email, "ADMIN_EMAIL")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")
	setString(&c.Admin.Name, "ADMIN_NAME")
	setBool(&c.Admin.SeedSamples, "SEED_SAMPLES")

	setDuration(&c.Trending.Window, "TRENDING_WINDOW")
	setInt(&c.Trending.Limit, "TRENDING_LIMIT")

	setInt(&c.Views.QueueSize, "VIEW_QUEUE_SIZE")
	setString(&c.Views.IPSalt, "VIEW_IP_SALT")

	setString(&c.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
