package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "libris",
			Name:      "client_requests_total",
			Help:      "Backend requests by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	rollbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "libris",
			Name:      "optimistic_rollbacks_total",
			Help:      "Optimistic mutations that were rolled back after a failed request.",
		},
		[]string{"resource"},
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "libris",
			Name:      "cache_total",
			Help:      "Query cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "libris",
			Name:      "payment_polls_total",
			Help:      "Payment confirmation poll cycles by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(requests, rollbacks, cacheOps, polls)
	})
}

// IncRequest increments the request counter for a resource/outcome pair.
func IncRequest(resource, outcome string) {
	requests.WithLabelValues(resource, outcome).Inc()
}

// IncRollback counts an optimistic rollback for a resource.
func IncRollback(resource string) {
	rollbacks.WithLabelValues(resource).Inc()
}

// IncCache counts a cache lookup result.
func IncCache(result string) {
	cacheOps.WithLabelValues(result).Inc()
}

// IncPoll counts a payment poll outcome.
func IncPoll(outcome string) {
	polls.WithLabelValues(outcome).Inc()
}
