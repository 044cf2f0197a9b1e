// Package crawler runs crawl rounds: it walks every configured source,
// discovers article links, claims them through the reservation store and
// hands the parsed pages to the coordinator.
package crawler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spravodaj/spravodaj/config"
	"github.com/spravodaj/spravodaj/internal/coordinator"
	"github.com/spravodaj/spravodaj/internal/fetch"
	"github.com/spravodaj/spravodaj/internal/store"
	"github.com/spravodaj/spravodaj/internal/telemetry"
	"github.com/spravodaj/spravodaj/internal/urlx"
)

// PageFetcher downloads one page.
type PageFetcher interface {
	Get(ctx context.Context, pageURL string) ([]byte, error)
}

// Processor decides what happens to a parsed page.
type Processor interface {
	Process(ctx context.Context, item coordinator.Item) (coordinator.Outcome, error)
}

// Reservations is the slice of the store the crawler needs.
type Reservations interface {
	Reserve(ctx context.Context, raw, canonical string) (bool, error)
	IsReserved(ctx context.Context, urls []string) (bool, error)
	Complete(ctx context.Context, raw, canonical, status, reason string) error
}

// SourceReport summarizes one source's part of a crawl run.
type SourceReport struct {
	URL        string `json:"url"`
	LinksFound int    `json:"links_found"`
	Reserved   int    `json:"reserved"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes a full crawl run.
type Report struct {
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Saved    int64          `json:"saved"`
	Sources  []SourceReport `json:"sources"`
}

// Crawler walks all configured sources concurrently.
type Crawler struct {
	sources  []config.SourceConfig
	cfg      config.CrawlConfig
	fetcher  PageFetcher
	rendered PageFetcher
	proc     Processor
	res      Reservations
	cache    *store.URLCache
	logger   *log.Logger
}

// New wires a crawler. rendered may be nil when no source needs a
// headless browser; cache may be nil.
func New(sources []config.SourceConfig, cfg config.CrawlConfig, fetcher, rendered PageFetcher, proc Processor, res Reservations, cache *store.URLCache, logger *log.Logger) *Crawler {
	if logger == nil {
		logger = log.Default()
	}
	return &Crawler{
		sources:  sources,
		cfg:      cfg.Normalize(),
		fetcher:  fetcher,
		rendered: rendered,
		proc:     proc,
		res:      res,
		cache:    cache,
		logger:   logger,
	}
}

// Run crawls every source once. Sources run in parallel under a worker
// cap; a failing source never aborts the others. Saved counts articles
// created or updated across all sources and is capped by MaxTotal.
func (c *Crawler) Run(ctx context.Context) *Report {
	started := time.Now()
	reports := make([]SourceReport, len(c.sources))

	workers := c.cfg.MaxWorkers
	if len(c.sources) < workers {
		workers = len(c.sources)
	}
	sem := make(chan struct{}, workers)
	var saved atomic.Int64
	var wg sync.WaitGroup

	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src config.SourceConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = c.crawlSource(ctx, src, &saved)
		}(i, src)
	}
	wg.Wait()

	report := &Report{Started: started, Finished: time.Now(), Saved: saved.Load(), Sources: reports}
	telemetry.CrawlDuration.Observe(report.Finished.Sub(report.Started).Seconds())
	c.logger.Printf("[CRAWL] run finished in %s, saved %d", report.Finished.Sub(report.Started).Round(time.Millisecond), report.Saved)
	return report
}

func (c *Crawler) crawlSource(ctx context.Context, src config.SourceConfig, saved *atomic.Int64) SourceReport {
	report := SourceReport{URL: src.URL}
	fetcher := c.fetcher
	if src.Render && c.rendered != nil {
		fetcher = c.rendered
	}

	landing, err := fetcher.Get(ctx, src.URL)
	if err != nil {
		telemetry.FetchErrors.WithLabelValues(src.URL).Inc()
		c.logger.Printf("[CRAWL] landing %s: %v", src.URL, err)
		report.Error = err.Error()
		return report
	}
	links, err := fetch.DiscoverLinks(src.URL, landing, src.Patterns)
	if err != nil {
		c.logger.Printf("[CRAWL] discover %s: %v", src.URL, err)
		report.Error = err.Error()
		return report
	}
	report.LinksFound = len(links)
	telemetry.LinksDiscovered.WithLabelValues(src.URL).Add(float64(len(links)))

	for _, link := range links {
		if ctx.Err() != nil {
			report.Error = ctx.Err().Error()
			return report
		}
		if report.Created+report.Updated >= c.cfg.MaxPerSource {
			break
		}
		if c.cfg.MaxTotal > 0 && saved.Load() >= int64(c.cfg.MaxTotal) {
			break
		}

		outcome, processed := c.crawlLink(ctx, fetcher, link, &report)
		if !processed {
			continue
		}
		switch outcome.Kind {
		case coordinator.KindCreated:
			report.Created++
			saved.Add(1)
		case coordinator.KindUpdated:
			report.Updated++
			saved.Add(1)
		case coordinator.KindSkipped:
			report.Skipped++
		case coordinator.KindFailed:
			report.Failed++
		}

		select {
		case <-ctx.Done():
			report.Error = ctx.Err().Error()
			return report
		case <-time.After(c.cfg.RequestDelay):
		}
	}
	return report
}

// crawlLink claims and processes one article link. The bool result is
// false when the link never reached the coordinator (cached, already
// reserved, or lost the claim).
func (c *Crawler) crawlLink(ctx context.Context, fetcher PageFetcher, link string, report *SourceReport) (coordinator.Outcome, bool) {
	canonical := urlx.Canonicalize(link)

	if c.cache.Seen(ctx, canonical) {
		return coordinator.Outcome{}, false
	}
	known, err := c.res.IsReserved(ctx, urlx.Aliases(link))
	if err != nil {
		c.logger.Printf("[CRAWL] reservation lookup %s: %v", canonical, err)
		return coordinator.Outcome{}, false
	}
	if known {
		c.cache.MarkSeen(ctx, canonical)
		return coordinator.Outcome{}, false
	}

	won, err := c.res.Reserve(ctx, link, canonical)
	if err != nil {
		c.logger.Printf("[CRAWL] reserve %s: %v", canonical, err)
		return coordinator.Outcome{}, false
	}
	if !won {
		telemetry.ReservationsLost.Inc()
		c.cache.MarkSeen(ctx, canonical)
		return coordinator.Outcome{}, false
	}
	telemetry.ReservationsWon.Inc()
	report.Reserved++

	// From here the URL is claimed, so every path below must end in a
	// terminal reservation state.
	body, err := fetcher.Get(ctx, link)
	if err != nil {
		telemetry.FetchErrors.WithLabelValues(report.URL).Inc()
		c.logger.Printf("[CRAWL] fetch %s: %v", link, err)
		c.complete(ctx, link, canonical, store.StatusFailed, "fetch failed")
		return coordinator.Outcome{Kind: coordinator.KindFailed, Reason: "fetch failed"}, true
	}
	page, err := fetch.Parse(link, body)
	if err != nil {
		c.logger.Printf("[CRAWL] parse %s: %v", link, err)
		c.complete(ctx, link, canonical, store.StatusFailed, "parse failed")
		return coordinator.Outcome{Kind: coordinator.KindFailed, Reason: "parse failed"}, true
	}
	if page.Text == "" {
		c.complete(ctx, link, canonical, store.StatusFailed, "no content")
		return coordinator.Outcome{Kind: coordinator.KindFailed, Reason: "no content"}, true
	}

	outcome, err := c.proc.Process(ctx, coordinator.Item{RawURL: link, CanonicalURL: canonical, Page: page})
	if err != nil {
		c.logger.Printf("[CRAWL] process %s: %v", canonical, err)
	}
	c.cache.MarkSeen(ctx, canonical, link)
	return outcome, true
}

func (c *Crawler) complete(ctx context.Context, raw, canonical, status, reason string) {
	if err := c.res.Complete(ctx, raw, canonical, status, reason); err != nil {
		c.logger.Printf("[CRAWL] complete %s: %v", canonical, err)
	}
	c.cache.MarkSeen(ctx, canonical)
	telemetry.Outcomes.WithLabelValues(string(coordinator.KindFailed)).Inc()
}
