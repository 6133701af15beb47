// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	registry = prometheus.NewRegistry()

	providerCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnemos",
		Name:      "provider_calls_total",
		Help:      "Number of calls to external providers by outcome.",
	}, []string{"provider", "outcome"})

	providerRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnemos",
		Name:      "provider_retries_total",
		Help:      "Number of retried provider calls.",
	}, []string{"provider"})

	dedupDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mnemos",
		Name:      "dedup_deleted_total",
		Help:      "Number of duplicate memories removed by outcome.",
	}, []string{"outcome"})

	embeddingCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mnemos",
		Name:      "embedding_cache_hits_total",
		Help:      "Number of embedding requests served from cache.",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		providerCalls,
		providerRetries,
		dedupDeleted,
		embeddingCacheHits,
	)
}

// ProviderCall records a completed provider call.
func ProviderCall(provider string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	providerCalls.WithLabelValues(provider, outcome).Inc()
}

// ProviderRetry records one retry of a provider call.
func ProviderRetry(provider string) {
	providerRetries.WithLabelValues(provider).Inc()
}

// DedupDeleted records the result of deleting one duplicate memory.
func DedupDeleted(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	dedupDeleted.WithLabelValues(outcome).Inc()
}

// EmbeddingCacheHit records an embedding served from cache.
func EmbeddingCacheHit() {
	embeddingCacheHits.Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
