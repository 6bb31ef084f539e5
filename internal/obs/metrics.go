package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every Prometheus collector the resolver exposes. All
// methods are safe to call on a nil receiver, so a process that disables
// metrics can pass a nil *Metrics through its call chain at zero cost.
type Metrics struct {
	ResolutionsTotal    *prometheus.CounterVec
	ResolutionDuration  *prometheus.HistogramVec
	CacheHitsTotal      *prometheus.CounterVec
	WINSDeadServers     prometheus.Gauge
	BroadcastRepliesLen prometheus.Histogram
}

// NewMetrics builds and registers the resolver's metrics against reg. A
// nil reg builds unregistered collectors, useful in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbtresolve_resolutions_total",
				Help: "Total name resolutions by method and result.",
			},
			[]string{"method", "result"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nbtresolve_resolution_duration_seconds",
				Help:    "Name resolution latency by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nbtresolve_cache_hits_total",
				Help: "Name cache lookups by outcome (hit, miss, negative).",
			},
			[]string{"outcome"},
		),
		WINSDeadServers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nbtresolve_wins_dead_servers",
			Help: "Number of WINS servers currently in cooldown.",
		}),
		BroadcastRepliesLen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nbtresolve_broadcast_replies",
			Help:    "Number of addresses collected per broadcast name query.",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ResolutionsTotal,
			m.ResolutionDuration,
			m.CacheHitsTotal,
			m.WINSDeadServers,
			m.BroadcastRepliesLen,
		)
	}
	return m
}

// RecordResolution records one resolution attempt's outcome and latency.
// Safe to call on nil receiver.
func (m *Metrics) RecordResolution(method, result string, seconds float64) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(method, result).Inc()
	m.ResolutionDuration.WithLabelValues(method).Observe(seconds)
}

// RecordCacheOutcome records one name-cache lookup's outcome
// ("hit", "miss", or "negative"). Safe to call on nil receiver.
func (m *Metrics) RecordCacheOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(outcome).Inc()
}

// SetWINSDeadServers records the current count of cooling-down WINS
// servers. Safe to call on nil receiver.
func (m *Metrics) SetWINSDeadServers(count int) {
	if m == nil {
		return
	}
	m.WINSDeadServers.Set(float64(count))
}

// ObserveBroadcastReplies records how many addresses one broadcast name
// query collected before it settled. Safe to call on nil receiver.
func (m *Metrics) ObserveBroadcastReplies(count int) {
	if m == nil {
		return
	}
	m.BroadcastRepliesLen.Observe(float64(count))
}
