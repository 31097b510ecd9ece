package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	externalCalls *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	scanEvents    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_cache_lookups_total",
				Help: "Resolution cache lookups by cache and result (hit|miss)",
			},
			[]string{"cache", "result"},
		),
		externalCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_external_calls_total",
				Help: "Outbound calls to external services by result",
			},
			[]string{"service", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind"},
		),
		scanEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astro_transit_scan_events_total",
				Help: "Transit events produced by range scans",
			},
			[]string{"mode"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astro_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordExternalCall counts an outbound call (result: ok, error, retry, not_found).
func (r *Recorder) RecordExternalCall(service, result string) {
	r.externalCalls.WithLabelValues(service, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScanEvents adds n events produced by a scan in mode.
func (r *Recorder) RecordScanEvents(mode string, n int) {
	r.scanEvents.WithLabelValues(mode).Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
