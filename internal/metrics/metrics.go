// Package metrics exposes the Prometheus instruments used across the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriplan_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriplan_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendations
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriplan_recommendation_duration_seconds",
			Help:    "Time spent computing recommendations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nutriplan_recommendation_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nutriplan_recommendation_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	ModelFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriplan_model_fallbacks_total",
			Help: "Requests served without a trained model",
		},
		[]string{"model"},
	)

	// Training
	RetrainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriplan_model_retrain_total",
			Help: "Model retraining runs by outcome",
		},
		[]string{"model", "success"},
	)

	RetrainDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriplan_model_retrain_duration_seconds",
			Help:    "Duration of model retraining runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// RecordAPIRequest records one handled request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records how long a recommendation request took.
func RecordRecommendation(mode string, duration time.Duration) {
	RecommendationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecommendationCacheHits.Inc()
		return
	}
	RecommendationCacheMisses.Inc()
}

// RecordFallback counts a request that degraded because model was unavailable.
func RecordFallback(model string) {
	ModelFallbacks.WithLabelValues(model).Inc()
}

// RecordRetrain records the outcome of a retraining run.
func RecordRetrain(model string, duration time.Duration, err error) {
	RetrainTotal.WithLabelValues(model, strconv.FormatBool(err == nil)).Inc()
	RetrainDuration.WithLabelValues(model).Observe(duration.Seconds())
}
