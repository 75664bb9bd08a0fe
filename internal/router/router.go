package router

import (
	"net/http"

	"dailydog/internal/handlers"
	"dailydog/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Article      *handlers.ArticleHandler
	Admin        *handlers.AdminHandler
	Auth         *handlers.AuthHandler
	Generate     *handlers.GenerateHandler
	Subscription *handlers.SubscriptionHandler
	Image        *handlers.ImageHandler
	SEO          *handlers.SEOHandler
	Page         *handlers.PageHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// Public pages
	r.GET("/", h.Article.Home)
	r.GET("/article/:slug", h.Article.Detail)
	r.GET("/privacy", h.Page.Privacy)
	r.GET("/img/:id", h.Image.Proxy)

	r.GET("/robots.txt", h.SEO.RobotsTxt)
	r.GET("/sitemap.xml", h.SEO.SitemapXML)
	r.GET("/feed.xml", h.SEO.RSSFeed)

	// Newsletter
	r.POST("/api/subscribe", h.Subscription.Subscribe)
	r.DELETE("/api/subscribe", h.Subscription.Unsubscribe)

	// Admin sign in
	r.GET("/admin/login", h.Auth.ShowLogin)
	r.POST("/admin/login", h.Auth.Login)
	r.GET("/admin/logout", h.Auth.Logout)
	r.POST("/admin/logout", h.Auth.Logout)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.GET("", h.Admin.Dashboard)
		admin.GET("/articles/new", h.Admin.NewArticle)
		admin.GET("/articles/:id/edit", h.Admin.EditArticle)
	}

	api := r.Group("/api")
	api.Use(middleware.APIAuthRequired())
	{
		api.POST("/articles", h.Article.Create)
		api.PUT("/articles/:id", h.Article.Update)
		api.DELETE("/articles/:id", h.Article.Delete)
		api.POST("/generate-article", h.Generate.Generate)
		api.POST("/upload", h.Image.Upload)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found")
	})
}
