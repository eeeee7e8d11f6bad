package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OfferMetrics records engine latency, applied offers, and badge cache usage.
type OfferMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	applied  *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewOfferMetrics registers the offer engine metrics on the provided registerer.
func NewOfferMetrics(reg prometheus.Registerer) *OfferMetrics {
	if reg == nil {
		return &OfferMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offers_operation_duration_seconds",
		Help:    "Duration of offer engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offers_operation_failures_total",
		Help: "Failed offer engine operations.",
	}, []string{"operation"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offers_applied_total",
		Help: "Offers applied to carts, by offer type.",
	}, []string{"offer_type"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offers_cache_lookups_total",
		Help: "Offer badge cache lookups, by result.",
	}, []string{"result"})
	reg.MustRegister(duration, failure, applied, cache)
	return &OfferMetrics{
		duration: duration,
		failure:  failure,
		applied:  applied,
		cache:    cache,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *OfferMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncFailure increments the failure counter for the named operation.
func (m *OfferMetrics) IncFailure(operation string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncApplied counts one applied offer of the given type.
func (m *OfferMetrics) IncApplied(offerType string) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.WithLabelValues(normalizeLabel(offerType)).Inc()
}

// IncCache counts a cache lookup outcome: hit, miss or error.
func (m *OfferMetrics) IncCache(result string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
