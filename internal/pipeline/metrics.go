package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the contribution pipeline.
type Metrics struct {
	accepted           prometheus.Counter
	rejectedNoConsent  prometheus.Counter
	rejectedOutOfScope prometheus.Counter
	failed             prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	processDuration    prometheus.Histogram
}

// NewMetrics creates and registers pipeline metrics on the given
// registerer. Pass prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_contributions_accepted_total",
			Help: "Entities scrubbed and written to the data network",
		}),
		rejectedNoConsent: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_contributions_rejected_no_consent_total",
			Help: "Entities rejected because the tenant has not opted in",
		}),
		rejectedOutOfScope: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_contributions_rejected_out_of_scope_total",
			Help: "Entities rejected because their type is outside the tenant's consent scope",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_contributions_failed_total",
			Help: "Entities that failed during scrubbing or the store write",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_consent_cache_hits_total",
			Help: "Consent lookups served from the validator cache",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "datamesh_consent_cache_misses_total",
			Help: "Consent lookups that reached the consent provider",
		}),
		processDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "datamesh_process_entity_duration_seconds",
			Help:    "End-to-end ProcessEntity latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncAccepted()           { m.accepted.Inc() }
func (m *Metrics) IncRejectedNoConsent()  { m.rejectedNoConsent.Inc() }
func (m *Metrics) IncRejectedOutOfScope() { m.rejectedOutOfScope.Inc() }
func (m *Metrics) IncFailed()             { m.failed.Inc() }

// IncConsentCacheHit and IncConsentCacheMiss satisfy the validator's
// CacheMetrics interface.
func (m *Metrics) IncConsentCacheHit()  { m.cacheHits.Inc() }
func (m *Metrics) IncConsentCacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) ObserveProcessDuration(seconds float64) {
	m.processDuration.Observe(seconds)
}
