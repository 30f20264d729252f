// Package metrics exposes the service's Prometheus instruments. A Metrics
// value owns its registry, so constructing one per test never trips duplicate
// registration. Every recording method is a no-op on a nil receiver.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ytapi"

type Metrics struct {
	registry *prometheus.Registry

	downloadsTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds prometheus.Histogram
	fileSizeBytes   prometheus.Histogram
	inProgress      prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Completed downloads by outcome.",
		},
		[]string{"status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_errors_total",
			Help:      "Failed downloads by failure category.",
		},
		[]string{"category"},
	)

	// Extractions run seconds to minutes, so the buckets stretch far past
	// the client defaults.
	m.durationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Wall-clock time of one extraction.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	m.fileSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_file_size_bytes",
			Help:      "Size of produced media files.",
			Buckets: []float64{
				1 << 20,  // 1MB
				10 << 20, // 10MB
				50 << 20, // 50MB
				100 << 20,
				500 << 20,
				1 << 30, // 1GB
			},
		},
	)

	m.inProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_progress",
			Help:      "Extractions currently running.",
		},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		},
		[]string{"path", "code"},
	)

	m.registry.MustRegister(
		m.downloadsTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
		m.requestsTotal,
	)
	return m
}

// Handler serves this Metrics value's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordDownload(status string, seconds float64) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(status).Inc()
	m.durationSeconds.Observe(seconds)
}

func (m *Metrics) RecordError(category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveFileSize(bytes int64) {
	if m == nil {
		return
	}
	m.fileSizeBytes.Observe(float64(bytes))
}

func (m *Metrics) IncInProgress() {
	if m == nil {
		return
	}
	m.inProgress.Inc()
}

func (m *Metrics) DecInProgress() {
	if m == nil {
		return
	}
	m.inProgress.Dec()
}

func (m *Metrics) RecordRequest(path string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
