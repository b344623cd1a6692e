package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records resolver and rule-engine activity.
type PricingMetrics struct {
	resolutions  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	rulesApplied prometheus.Counter
	duration     *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_resolutions_total",
		Help: "Price resolutions by outcome.",
	}, []string{"outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_cache_lookups_total",
		Help: "Resolution cache lookups by result.",
	}, []string{"result"})
	rulesApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_rules_applied_total",
		Help: "Discount rules applied during calculations.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_resolve_duration_seconds",
		Help:    "Duration of price resolutions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(resolutions, cacheLookups, rulesApplied, duration)
	return &PricingMetrics{
		resolutions:  resolutions,
		cacheLookups: cacheLookups,
		rulesApplied: rulesApplied,
		duration:     duration,
	}
}

// IncResolution increments the resolution counter for the given outcome
// ("resolved" or "not_found").
func (m *PricingMetrics) IncResolution(outcome string) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCacheLookup increments the cache counter for the given result
// ("hit", "miss", or "error").
func (m *PricingMetrics) IncCacheLookup(result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncRulesApplied counts discount rules that landed on a calculation.
func (m *PricingMetrics) IncRulesApplied(n int) {
	if m == nil || m.rulesApplied == nil || n <= 0 {
		return
	}
	m.rulesApplied.Add(float64(n))
}

// ObserveDuration records the duration for the named operation.
func (m *PricingMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
