// Package metrics exposes the service's Prometheus collectors. All methods
// are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPath is the HTTP path for the Prometheus scrape endpoint.
const DefaultPath = "/metrics"

const namespace = "menuboard"

// Upload results.
const (
	UploadOK       = "ok"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

type Metrics struct {
	registry      *prometheus.Registry
	menuMutations *prometheus.CounterVec
	auditFailures prometheus.Counter
	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
}

// New registers all collectors on a private registry, plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		menuMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_mutations_total",
			Help:      "Successful menu item mutations by action.",
		}, []string{"action"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit records that could not be written.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Image upload attempts by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_upload_bytes",
			Help:      "Size of stored images.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10),
		}),
	}

	reg.MustRegister(
		m.menuMutations,
		m.auditFailures,
		m.uploads,
		m.uploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MenuMutation(action string) {
	if m == nil {
		return
	}
	m.menuMutations.WithLabelValues(action).Inc()
}

func (m *Metrics) AuditWriteFailed() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

func (m *Metrics) Upload(result string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
	if result == UploadOK {
		m.uploadBytes.Observe(float64(size))
	}
}
