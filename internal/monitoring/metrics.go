// Package monitoring exposes scrape metrics over Prometheus.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements the pipeline observer over Prometheus collectors.
type Metrics struct {
	pagesScraped    prometheus.Counter
	tracksExtracted prometheus.Counter
	tracksSkipped   *prometheus.CounterVec
	discrepancies   *prometheus.CounterVec
	retries         *prometheus.CounterVec
	enrichments     *prometheus.CounterVec
	pageDuration    prometheus.Histogram
}

// NewMetrics builds and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "pages_scraped_total",
			Help:      "Playlist pages fully processed.",
		}),
		tracksExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "tracks_extracted_total",
			Help:      "Tracks successfully extracted.",
		}),
		tracksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "tracks_skipped_total",
			Help:      "Rows skipped during extraction, by reason.",
		}, []string{"reason"}),
		discrepancies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "field_discrepancies_total",
			Help:      "Fields whose selector candidates disagreed.",
		}, []string{"field"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "retry_attempts_total",
			Help:      "Failed attempts that triggered a retry, by action.",
		}, []string{"action"}),
		enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundscrape",
			Name:      "enrichment_lookups_total",
			Help:      "Catalog enrichment lookups, by outcome.",
		}, []string{"outcome"}),
		pageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soundscrape",
			Name:      "page_scrape_duration_seconds",
			Help:      "End-to-end playlist page processing time.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	reg.MustRegister(
		m.pagesScraped,
		m.tracksExtracted,
		m.tracksSkipped,
		m.discrepancies,
		m.retries,
		m.enrichments,
		m.pageDuration,
	)
	return m
}

func (m *Metrics) PageScraped()    { m.pagesScraped.Inc() }
func (m *Metrics) TrackExtracted() { m.tracksExtracted.Inc() }

func (m *Metrics) TrackSkipped(reason string) {
	m.tracksSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Discrepancy(field string) {
	m.discrepancies.WithLabelValues(field).Inc()
}

// RetryAttempted records one failed attempt of a retried action.
func (m *Metrics) RetryAttempted(action string) {
	m.retries.WithLabelValues(action).Inc()
}

// EnrichmentOutcome records a catalog lookup result: matched, unmatched,
// or failed.
func (m *Metrics) EnrichmentOutcome(outcome string) {
	m.enrichments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePageDuration(d time.Duration) {
	m.pageDuration.Observe(d.Seconds())
}
