package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/coordinator"
	"github.com/spravodaj/spravodaj/internal/crawler"
	"github.com/spravodaj/spravodaj/internal/embed"
	"github.com/spravodaj/spravodaj/internal/fetch"
	"github.com/spravodaj/spravodaj/internal/generate"
	"github.com/spravodaj/spravodaj/internal/search"
	"github.com/spravodaj/spravodaj/internal/similarity"
	"github.com/spravodaj/spravodaj/internal/store"
)

// deps is the shared top-level wiring used by serve and crawl.
type deps struct {
	cfg     *config.Config
	store   *store.Store
	cache   *store.URLCache
	index   *search.Index
	search  *search.Service
	crawler *crawler.Crawler
}

func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
	}
	cache := store.NewURLCache(rdb, 0)

	index, err := search.NewIndex()
	if err != nil {
		return nil, err
	}
	if n, err := index.Rebuild(ctx, st); err != nil {
		log.Printf("[INIT] search index rebuild: %v", err)
	} else {
		log.Printf("[INIT] search index loaded %d articles", n)
	}

	embedder := embed.NewClient(cfg.LLM)
	gen := generate.NewClient(cfg.LLM)
	scorer := similarity.NewScorer(cfg.Similarity)

	coordLogger := log.New(log.Writer(), "[COORD] ", log.LstdFlags)
	coord := coordinator.New(st, gen, embedder, scorer, index, cfg.Crawl, cfg.Similarity, coordLogger)

	var rendered crawler.PageFetcher
	for _, src := range cfg.Sources {
		if src.Render {
			rendered = fetch.NewRenderedClient(cfg.Crawl.FetchTimeout)
			break
		}
	}
	crawlLogger := log.New(log.Writer(), "[CRAWL] ", log.LstdFlags)
	cr := crawler.New(cfg.Sources, cfg.Crawl, fetch.NewClient(cfg.Crawl.FetchTimeout), rendered, coord, st, cache, crawlLogger)

	searchLogger := log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	svc := search.NewService(st, embedder, index, searchLogger)

	return &deps{
		cfg:     cfg,
		store:   st,
		cache:   cache,
		index:   index,
		search:  svc,
		crawler: cr,
	}, nil
}
