package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailydog/internal/config"
	"dailydog/internal/db"
	"dailydog/internal/handlers"
	"dailydog/internal/logger"
	"dailydog/internal/middleware"
	"dailydog/internal/repository"
	"dailydog/internal/router"
	"dailydog/internal/services"
	"dailydog/internal/utils"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const pageCacheSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	conn, err := db.Open(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	if err := db.SeedAdmin(conn, cfg.Admin, zlog); err != nil {
		zlog.Fatal("seed admin", zap.Error(err))
	}
	if cfg.Admin.SeedSamples {
		if err := db.SeedSamples(conn, cfg.Admin.Email, zlog); err != nil {
			zlog.Fatal("seed samples", zap.Error(err))
		}
	}

	cache, err := utils.NewPageCache(pageCacheSize)
	if err != nil {
		zlog.Fatal("page cache", zap.Error(err))
	}

	// Repositories
	articleRepo := repository.NewArticleRepository(conn)
	viewRepo := repository.NewViewRepository(conn)
	subRepo := repository.NewSubscriptionRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	// Services
	articles := services.NewArticleService(articleRepo, userRepo, cache, zlog)
	views := services.NewViewRecorder(viewRepo, cfg.Views.QueueSize, zlog)
	trending := services.NewTrendingRanker(viewRepo, articleRepo, cfg.Trending.Window, cfg.Trending.Limit)
	frontPage := services.NewFrontPageService(articleRepo, trending, cache)
	images := services.NewImgurStore(cfg.Imgur.ClientID, zlog)
	generator := services.NewArticleGenerator(cfg.OpenAI, images, zlog)
	mailer := services.NewMailService(cfg.SMTP, cfg.Server.SiteURL, cfg.Server.TemplatesDir+"/email", zlog)
	subs := services.NewSubscriptionService(subRepo, mailer, zlog)

	if !images.Enabled() {
		zlog.Warn("IMGUR_CLIENT_ID not set: uploads and generated images are disabled")
	}
	if !mailer.Enabled() {
		zlog.Warn("SMTP not configured: newsletter emails are disabled")
	}

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(middleware.Recovery(zlog), middleware.RequestLogger(zlog))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/img/", "/metrics"})))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("dailydog_session", store))

	renderer, err := router.LoadTemplates(cfg.Server.TemplatesDir)
	if err != nil {
		zlog.Fatal("load templates", zap.Error(err))
	}
	r.HTMLRender = renderer

	r.Static("/static", cfg.Server.StaticDir)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.LoadUser(userRepo))

	router.RegisterRoutes(r, router.Handlers{
		Article:      handlers.NewArticleHandler(articles, frontPage, views, cfg.Views.IPSalt, cfg.Server.SiteURL, zlog),
		Admin:        handlers.NewAdminHandler(articles, subs, zlog),
		Auth:         handlers.NewAuthHandler(userRepo, zlog),
		Generate:     handlers.NewGenerateHandler(generator, services.NewSourceFetcher(zlog), zlog),
		Subscription: handlers.NewSubscriptionHandler(subs, zlog),
		Image:        handlers.NewImageHandler(images, zlog),
		SEO:          handlers.NewSEOHandler(articles, cache, cfg.Server.SiteURL, zlog),
		Page:         handlers.NewPageHandler(cfg.Server.ContentDir, zlog),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("The Daily Dog server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	if err := views.Close(ctx); err != nil {
		zlog.Error("view recorder drain", zap.Error(err))
	}
}
