package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsift_llm_requests_total",
		Help: "Model API calls issued, labeled by backend.",
	}, []string{"backend"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsift_llm_rate_limited_total",
		Help: "Model API calls that hit a rate limit, labeled by backend.",
	}, []string{"backend"})

	retriesExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsift_llm_retries_exhausted_total",
		Help: "Extractions abandoned after the retry budget ran out.",
	}, []string{"backend"})

	throttleDelay = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobsift_llm_throttle_delay_seconds",
		Help:    "Delay introduced by the inter-request throttle.",
		Buckets: []float64{0.1, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"backend"})
)
