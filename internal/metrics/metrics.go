// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2500, 5000}

var (
	NearbyRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_requests_total",
		Help: "Total number of nearby queries",
	})
	NearbyDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nearby_request_duration_ms",
		Help:    "Nearby query duration in milliseconds",
		Buckets: durationBuckets,
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_empty_results_total",
		Help: "Total number of nearby queries that resolved no candidate",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_cache_hits_total",
		Help: "Total ranked cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_cache_misses_total",
		Help: "Total ranked cache misses",
	})
	DistanceRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_distance_requests_total",
		Help: "Total distance matrix requests",
	})
	DistanceSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_distance_success_total",
		Help: "Total distance matrix successes",
	})
	DistanceFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nearby_distance_fail_total",
		Help: "Total distance matrix failures by reason",
	}, []string{"reason"})
	DistanceDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nearby_distance_duration_ms",
		Help:    "Distance matrix call duration in milliseconds",
		Buckets: durationBuckets,
	})
	DistanceElementsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_distance_elements_dropped_total",
		Help: "Total matrix elements skipped for a non-OK status or missing distance",
	})
	ApplicantSearchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_applicant_searches_total",
		Help: "Total applicant searches",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nearby_rate_limited_total",
		Help: "Total requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(NearbyRequestsTotal)
	prometheus.MustRegister(NearbyDurationMs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(DistanceRequestsTotal)
	prometheus.MustRegister(DistanceSuccessTotal)
	prometheus.MustRegister(DistanceFailTotal)
	prometheus.MustRegister(DistanceDurationMs)
	prometheus.MustRegister(DistanceElementsDroppedTotal)
	prometheus.MustRegister(ApplicantSearchesTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
