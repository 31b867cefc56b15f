// Package metrics exposes Prometheus metrics about exports and warm-up probes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
)

// Export modes.
const (
	ModeDownload = "download"
	ModeEmail    = "email"
)

// Export outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeEmpty         = "empty"
	OutcomeStoreError    = "store_error"
	OutcomeDeliveryError = "delivery_error"
)

// Collector records export and warm-up metrics into its own registry. A disabled collector
// accepts every call and records nothing.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	exportedRows   prometheus.Histogram
	warmups        *prometheus.CounterVec
}

// NewCollector creates a collector for the configuration. If registry is nil a fresh registry
// with the Go and process collectors is used.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "contacts"
	}

	c := &Collector{
		enabled:  cfg.Enabled,
		registry: registry,
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Number of export requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Time spent serving an export request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		exportedRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "contacts",
			Help:      "Number of contacts in a successful export.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		warmups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "probes_total",
			Help:      "Number of warm-up probes, split by cold start.",
		}, []string{"cold_start"}),
	}
	if c.enabled {
		registry.MustRegister(c.exports, c.exportDuration, c.exportedRows, c.warmups)
	}
	return c
}

// RecordExport records one finished export request. contacts is only observed on success.
func (c *Collector) RecordExport(mode, outcome string, duration time.Duration, contacts int) {
	if !c.enabled {
		return
	}
	c.exports.WithLabelValues(mode, outcome).Inc()
	c.exportDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		c.exportedRows.Observe(float64(contacts))
	}
}

// RecordWarmup records one warm-up probe.
func (c *Collector) RecordWarmup(coldStart bool) {
	if !c.enabled {
		return
	}
	label := "false"
	if coldStart {
		label = "true"
	}
	c.warmups.WithLabelValues(label).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
