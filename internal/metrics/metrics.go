// Package metrics records backend latency and cache effectiveness.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for backend calls.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeCircuitOpen = "circuit_open"
)

// Recorder abstracts the metrics sink so tests can swap in Nop.
type Recorder interface {
	ObserveBackend(backend, operation, outcome string, duration time.Duration)
	CacheLookup(kind string, hit bool)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveBackend(string, string, string, time.Duration) {}
func (Nop) CacheLookup(string, bool)                             {}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	backendDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paperdistill",
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of summarization and generation backend calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend", "operation"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperdistill",
			Name:      "backend_requests_total",
			Help:      "Backend calls by outcome.",
		}, []string{"backend", "operation", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperdistill",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by kind and result.",
		}, []string{"kind", "result"}),
	}
	for _, c := range []prometheus.Collector{p.backendDuration, p.backendCalls, p.cacheLookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveBackend(backend, operation, outcome string, duration time.Duration) {
	p.backendDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	p.backendCalls.WithLabelValues(backend, operation, outcome).Inc()
}

func (p *Prometheus) CacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(kind, result).Inc()
}
