// Package metrics defines the Prometheus collectors used by the index builder
// and the query runner and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	DocsIndexedTotal   prometheus.Counter
	BlocksBuiltTotal   *prometheus.CounterVec
	BlockBuildDuration prometheus.Histogram
	MergedTermsTotal   prometheus.Counter
	MergeDuration      prometheus.Histogram
	TopicsRankedTotal  *prometheus.CounterVec
	RankingDuration    *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them on reg. A nil reg uses a
// fresh private registry, which keeps repeated construction in tests safe.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents added to blocks.",
			},
		),
		BlocksBuiltTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_built_total",
				Help: "Total block builds by status.",
			},
			[]string{"status"},
		),
		BlockBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "block_build_duration_seconds",
				Help:    "Time to build and write one block.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		MergedTermsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "merged_terms_total",
				Help: "Distinct terms written by the k-way merge.",
			},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "merge_duration_seconds",
				Help:    "Time spent merging blocks.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		TopicsRankedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topics_ranked_total",
				Help: "Topics ranked by scoring model.",
			},
			[]string{"model"},
		),
		RankingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ranking_duration_seconds",
				Help:    "Per-topic ranking latency by scoring model.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"model"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "term_cache_hits_total",
				Help: "Per-term score cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "term_cache_misses_total",
				Help: "Per-term score cache misses.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.BlocksBuiltTotal,
		m.BlockBuildDuration,
		m.MergedTermsTotal,
		m.MergeDuration,
		m.TopicsRankedTotal,
		m.RankingDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for these collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
