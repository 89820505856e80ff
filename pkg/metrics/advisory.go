package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "travel_advisor"

// Resolution outcomes.
const (
	OutcomeMatched     = "matched"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
	CacheCorrupt = "corrupt"
	CacheError   = "error"
)

// AdvisoryMetrics holds the Prometheus collectors for advisory resolution.
// A nil *AdvisoryMetrics is valid and records nothing.
type AdvisoryMetrics struct {
	Resolutions   *prometheus.CounterVec // labels: outcome
	CacheLookups  *prometheus.CounterVec // labels: result
	CacheWrites   *prometheus.CounterVec // labels: outcome={ok,error}
	FetchDuration prometheus.Histogram
}

// NewAdvisoryMetrics creates the collectors and registers them with reg.
func NewAdvisoryMetrics(reg prometheus.Registerer) *AdvisoryMetrics {
	m := &AdvisoryMetrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Advisory resolutions by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Bulletin cache lookups by result.",
		}, []string{"result"}),
		CacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Bulletin cache writes by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of live bulletin list fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.CacheLookups, m.CacheWrites, m.FetchDuration)
	}
	return m
}

// ObserveResolution counts one resolution outcome.
func (m *AdvisoryMetrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// ObserveCacheLookup counts one cache lookup result.
func (m *AdvisoryMetrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite counts one cache write.
func (m *AdvisoryMetrics) ObserveCacheWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CacheWrites.WithLabelValues(outcome).Inc()
}

// ObserveFetch records the duration of one upstream fetch in seconds.
func (m *AdvisoryMetrics) ObserveFetch(seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
}
