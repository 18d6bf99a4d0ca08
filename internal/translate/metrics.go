package translate

import "github.com/prometheus/client_golang/prometheus"

var (
	attemptCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "translation",
		Name:      "attempts_total",
		Help:      "Translation provider attempts, labeled by provider and outcome.",
	}, []string{"provider", "outcome"})

	attemptDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "translation",
		Name:      "attempt_duration_seconds",
		Help:      "Latency of translation provider attempts.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"provider"})

	cacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "translation",
		Name:      "cache_lookups_total",
		Help:      "Translation cache lookups, labeled by result (hit or miss).",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(attemptCounter, attemptDuration, cacheCounter)
}
