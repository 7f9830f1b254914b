package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_http_requests_total",
			Help: "HTTP requests processed, by route and status code.",
		},
		[]string{"route", "code"},
	)

	// RequestDuration observes HTTP request latency by route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelscout_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// CacheHitsTotal counts result cache hits.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelscout_cache_hits_total",
			Help: "Result cache hits.",
		},
	)

	// CacheMissesTotal counts result cache misses.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reelscout_cache_misses_total",
			Help: "Result cache misses.",
		},
	)

	// PipelineStageTotal counts pipeline stage outcomes.
	PipelineStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_pipeline_stage_total",
			Help: "Search pipeline stage outcomes, by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	// ProviderRequestsTotal counts upstream provider calls.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_provider_requests_total",
			Help: "Upstream provider requests, by provider and result.",
		},
		[]string{"provider", "result"},
	)

	// EnrichmentDuration observes the latency of a full enrichment batch.
	EnrichmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelscout_enrichment_duration_seconds",
			Help:    "Latency of an enrichment batch in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestsTotal,
		RequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		PipelineStageTotal,
		ProviderRequestsTotal,
		EnrichmentDuration,
	)
}
