package handlers

import (
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"dailydog/internal/services"
	"dailydog/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	feedItems  = 20
	feedBlocks = 3
	sitemapTTL = 10 * time.Minute
	sitemapKey = "seo:sitemap"
)

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type rssCDATA struct {
	Text string `xml:",cdata"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description rssCDATA `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language"`
	LastBuildDate string      `xml:"lastBuildDate"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

// SEOHandler serves robots.txt, the sitemap and the RSS feed.
type SEOHandler struct {
	articles *services.ArticleService
	cache    *utils.PageCache
	siteURL  string
	log      *zap.Logger
	now      func() time.Time
}

func NewSEOHandler(articles *services.ArticleService, cache *utils.PageCache, siteURL string, log *zap.Logger) *SEOHandler {
	return &SEOHandler{articles: articles, cache: cache, siteURL: siteURL, log: log, now: time.Now}
}

// RobotsTxt keeps crawlers out of the admin pages and the API.
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /api/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the home page, the admin entry point and every published
// article with its last modification date.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	// 1. Serve the cached document while it is fresh
	if cached, ok := h.cache.Get(sitemapKey).([]byte); ok {
		c.Data(http.StatusOK, "application/xml; charset=utf-8", cached)
		return
	}

	// 2. No limit: every published article is listed
	articles, err := h.articles.List(c.Request.Context(), services.ArticleQuery{PublishedOnly: true})
	if err != nil {
		h.log.Error("sitemap articles", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not build sitemap")
		return
	}

	// 3. Static entries first, then one per article
	today := h.now().UTC().Format("2006-01-02")
	set := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: h.siteURL + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: h.siteURL + "/admin", LastMod: today, ChangeFreq: "monthly", Priority: "0.1"},
		},
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.siteURL + "/article/" + a.Slug,
			LastMod:    a.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	body, err := marshalXML(set)
	if err != nil {
		h.log.Error("encode sitemap", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not build sitemap")
		return
	}
	// article writes purge the cache
	h.cache.Set(sitemapKey, body, sitemapTTL)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// RSSFeed renders the latest published articles as RSS 2.0.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	articles, err := h.articles.List(c.Request.Context(), services.ArticleQuery{
		PublishedOnly: true,
		Limit:         feedItems,
		WithAuthor:    true,
	})
	if err != nil {
		h.log.Error("feed articles", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not build feed")
		return
	}

	feed := rssFeed{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         "The Daily Dog",
			Link:          h.siteURL,
			Description:   "News and stories for people who love dogs",
			Language:      "en-us",
			LastBuildDate: h.now().Format(time.RFC1123Z),
			AtomLink:      rssAtomLink{Href: h.siteURL + "/feed.xml", Rel: "self", Type: "application/rss+xml"},
		},
	}
	for _, a := range articles {
		// first blocks of the article, or the excerpt, plus a link back
		link := h.siteURL + "/article/" + a.Slug
		summary := leadingBlocks(utils.NormalizeContent(a.Content), feedBlocks)
		if summary == "" {
			summary = "<p>" + html.EscapeString(utils.StripTags(a.Excerpt)) + "</p>"
		}
		summary += fmt.Sprintf(`<p><a href="%s">Read the full story →</a></p>`, link)

		published := a.CreatedAt
		if a.PublishedAt != nil {
			published = *a.PublishedAt
		}
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       a.Title,
			Link:        link,
			Description: rssCDATA{Text: summary},
			Author:      a.AuthorName(),
			Categories:  a.Topics,
			PubDate:     published.Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: "true", Value: link},
		})
	}

	body, err := marshalXML(feed)
	if err != nil {
		h.log.Error("encode feed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not build feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func marshalXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// leadingBlocks keeps the first n top level blocks of rendered content.
func leadingBlocks(content string, n int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	var parts []string
	doc.Find("body").Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		block, err := goquery.OuterHtml(s)
		if err == nil && strings.TrimSpace(s.Text()) != "" {
			parts = append(parts, block)
		}
		return len(parts) < n
	})
	return strings.Join(parts, "\n")
}
