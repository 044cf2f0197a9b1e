package crawler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/spravodaj/spravodaj/internal/store"
)

// Scheduler fires crawl runs on a cron spec. A Redis run lock keeps
// multiple instances from crawling at the same time; without Redis the
// lock always grants.
type Scheduler struct {
	crawler *Crawler
	cache   *store.URLCache
	expr    *cronexpr.Expression
	lockTTL time.Duration
	logger  *log.Logger
}

// NewScheduler parses the cron spec and wires the scheduler.
func NewScheduler(crawler *Crawler, cache *store.URLCache, spec string, logger *log.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		crawler: crawler,
		cache:   cache,
		expr:    expr,
		lockTTL: 10 * time.Minute,
		logger:  logger,
	}, nil
}

// Run blocks, firing a crawl at every cron tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := s.expr.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("schedule yields no next run")
		}
		s.logger.Printf("[SCHED] next crawl at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if !s.cache.TryRunLock(ctx, s.lockTTL) {
			s.logger.Printf("[SCHED] crawl already running elsewhere, skipping tick")
			continue
		}
		report := s.crawler.Run(ctx)
		s.cache.ReleaseRunLock(ctx)
		s.logger.Printf("[SCHED] crawl done: saved %d across %d sources", report.Saved, len(report.Sources))
	}
}
