package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects gateway counters. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups *prometheus.CounterVec
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Subsystem: "gateway",
			Name:      "cache_lookups_total",
			Help:      "TTL cache lookups by operation and result (hit|miss)",
		}, []string{"operation", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Subsystem: "gateway",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the event API by operation and outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "citypulse",
			Subsystem: "gateway",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of event API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(m.cacheLookups, m.requests, m.latency)
	}

	return m
}

func (m *Metrics) lookup(op string, hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.cacheLookups.WithLabelValues(op, result).Inc()
}

func (m *Metrics) request(op, outcome string, took time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(took.Seconds())
}
