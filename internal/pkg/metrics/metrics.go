package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the storefront API.
type Metrics struct {
	Mutations            *prometheus.CounterVec
	MediaDeleteFailures  *prometheus.CounterVec
	OrphanedMediaRefs    *prometheus.CounterVec
	CatalogCacheRequests *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "pipeline",
			Name:      "mutations_total",
			Help:      "Total number of tenant-scoped mutations by operation and outcome.",
		}, []string{"op", "outcome"}), // outcome: ok or a taxonomy code
		MediaDeleteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "media",
			Name:      "delete_failures_total",
			Help:      "Media store batch deletions that reported at least one failed reference, by policy.",
		}, []string{"op", "policy"}),
		OrphanedMediaRefs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "media",
			Name:      "orphaned_references_total",
			Help:      "References left behind in the media store after a best-effort cleanup failed.",
		}, []string{"op"}),
		CatalogCacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cache",
			Name:      "catalog_requests_total",
			Help:      "Catalog read cache lookups by result.",
		}, []string{"result"}), // hit, miss, error
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}
