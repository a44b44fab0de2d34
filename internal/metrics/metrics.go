package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formshield_verdicts_total",
		Help: "Screening verdicts by persisted status.",
	}, []string{"status"})

	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formshield_provider_calls_total",
		Help: "AI provider analysis calls by provider and outcome.",
	}, []string{"provider", "status"})

	ProviderCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formshield_provider_call_seconds",
		Help:    "AI provider analysis latency.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formshield_cache_lookups_total",
		Help: "Verdict cache lookups by result (hit, miss, error, disabled).",
	}, []string{"result"})

	DuplicateHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formshield_duplicate_hits_total",
		Help: "Duplicate-flood detections by kind (hard, soft).",
	}, []string{"kind"})
)

// ObserveProviderCall records one provider analysis. Providers call it
// themselves so each call is counted once.
func ObserveProviderCall(provider, status string, seconds float64) {
	ProviderCalls.WithLabelValues(provider, status).Inc()
	ProviderCallSeconds.WithLabelValues(provider).Observe(seconds)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
