// Package telemetry registers the Prometheus metrics exposed on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinksDiscovered counts article links found on source landing pages.
	LinksDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spravodaj_links_discovered_total",
		Help: "Article links discovered on source landing pages.",
	}, []string{"source"})

	// ReservationsWon counts URL claims this instance won.
	ReservationsWon = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spravodaj_reservations_won_total",
		Help: "URL reservations won.",
	})

	// ReservationsLost counts URL claims another worker already held.
	ReservationsLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spravodaj_reservations_lost_total",
		Help: "URL reservations lost to another worker.",
	})

	// Outcomes counts processing outcomes by kind (created, updated,
	// skipped, failed).
	Outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spravodaj_outcomes_total",
		Help: "Processing outcomes by kind.",
	}, []string{"kind"})

	// FetchErrors counts failed page downloads by source.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spravodaj_fetch_errors_total",
		Help: "Failed page downloads.",
	}, []string{"source"})

	// CrawlDuration observes full crawl run durations.
	CrawlDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spravodaj_crawl_duration_seconds",
		Help:    "Duration of full crawl runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
