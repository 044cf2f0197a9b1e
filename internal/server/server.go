// Package server exposes the HTTP API: health and metrics endpoints,
// admin login, manual crawl trigger, and article listing and search.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/crawler"
	"github.com/spravodaj/spravodaj/internal/search"
	"github.com/spravodaj/spravodaj/internal/store"
)

// CrawlRunner fires one crawl run.
type CrawlRunner interface {
	Run(ctx context.Context) *crawler.Report
}

// ArticleLister is the read side of the article store.
type ArticleLister interface {
	ListArticles(ctx context.Context, limit, offset int) ([]store.Article, error)
}

// Searcher answers article search queries.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]search.Result, error)
}

// Server wires the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	articles ArticleLister
	searcher Searcher
	runner   CrawlRunner
	logger   *log.Logger
}

// New builds the server. searcher and runner may be nil; the related
// endpoints then report 503.
func New(cfg config.ServerConfig, articles ArticleLister, searcher Searcher, runner CrawlRunner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &Server{cfg: cfg, articles: articles, searcher: searcher, runner: runner, logger: logger}
}

// Echo assembles the routed echo instance.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := &AuthHandler{Secret: []byte(s.cfg.JWTSecret), AdminHash: s.cfg.AdminPasswordHash}
	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	api.GET("/articles", s.listArticles)
	api.GET("/search", s.searchArticles)

	admin := api.Group("")
	admin.Use(authMiddleware(auth.Secret))
	admin.POST("/crawl", s.triggerCrawl)

	return e
}

// Run serves until ctx is cancelled or the listener fails. Cancellation
// shuts the listener down gracefully and is not reported as an error.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.JWTSecret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}
	addr := s.cfg.Address
	if addr == "" {
		addr = ":8080"
	}
	e := s.Echo()
	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
	if err := e.Start(addr); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) listArticles(c echo.Context) error {
	limit := intQuery(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := intQuery(c, "offset", 0)
	articles, err := s.articles.ListArticles(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if articles == nil {
		articles = []store.Article{}
	}
	return c.JSON(http.StatusOK, articles)
}

func (s *Server) searchArticles(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	if s.searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search not configured")
	}
	results, err := s.searcher.Search(c.Request().Context(), q, intQuery(c, "k", 10))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if results == nil {
		results = []search.Result{}
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) triggerCrawl(c echo.Context) error {
	if s.runner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "crawler not configured")
	}
	report := s.runner.Run(c.Request().Context())
	return c.JSON(http.StatusOK, report)
}

func intQuery(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
