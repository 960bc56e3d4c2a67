// Package metrics exposes Prometheus counters for ingestion runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all newsdesk metrics.
	Namespace = "newsdesk"

	// Subsystem is the subsystem for ingestion metrics.
	Subsystem = "ingest"
)

// Outcomes recorded per search configuration.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeEmpty  = "empty"
)

// Metrics holds the ingestion metrics. A nil *Metrics records nothing.
type Metrics struct {
	ConfigsProcessed *prometheus.CounterVec
	ArticlesScraped  prometheus.Counter
	ArticlesCreated  prometheus.Counter
	ArticlesSkipped  *prometheus.CounterVec
	ImageFailures    prometheus.Counter
	ConfigDuration   prometheus.Histogram
}

// New creates and registers the metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConfigsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "configs_processed_total",
				Help:      "Search configurations processed, by outcome",
			},
			[]string{"outcome"},
		),
		ArticlesScraped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "articles_scraped_total",
			Help:      "Articles returned by scrape passes",
		}),
		ArticlesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "articles_created_total",
			Help:      "Articles committed to the store",
		}),
		ArticlesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "articles_skipped_total",
				Help:      "Scraped articles not persisted, by reason",
			},
			[]string{"reason"},
		),
		ImageFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "image_failures_total",
			Help:      "Article images that could not be downloaded or attached",
		}),
		ConfigDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "config_duration_seconds",
			Help:      "Time spent on one search configuration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
		}),
	}
}

// ConfigDone records one finished configuration.
func (m *Metrics) ConfigDone(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ConfigsProcessed.WithLabelValues(outcome).Inc()
	m.ConfigDuration.Observe(elapsed.Seconds())
}

// Scraped adds n scraped articles.
func (m *Metrics) Scraped(n int) {
	if m == nil {
		return
	}
	m.ArticlesScraped.Add(float64(n))
}

// Created adds n committed articles.
func (m *Metrics) Created(n int) {
	if m == nil {
		return
	}
	m.ArticlesCreated.Add(float64(n))
}

// Skipped records an article that was not persisted.
func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.ArticlesSkipped.WithLabelValues(reason).Inc()
}

// ImageFailed records a failed image download or attachment.
func (m *Metrics) ImageFailed() {
	if m == nil {
		return
	}
	m.ImageFailures.Inc()
}
