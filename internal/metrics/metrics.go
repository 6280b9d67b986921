// Package metrics exposes prometheus collectors for profile computation and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection.
type Collector struct {
	Registry *prometheus.Registry

	// API metrics.
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Reduction metrics.
	FilesReadTotal     *prometheus.CounterVec
	FileErrorsTotal    *prometheus.CounterVec
	RecordsReadTotal   *prometheus.CounterVec
	ReduceDuration     *prometheus.HistogramVec
	MissingLayers      *prometheus.GaugeVec
	ScreenedLayers     *prometheus.CounterVec
	CollectionDuration prometheus.Histogram

	// Cache metrics.
	CacheLookupsTotal *prometheus.CounterVec
}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		Registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"endpoint"},
		),

		FilesReadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_read_total",
				Help:      "Total number of source files read by product",
			},
			[]string{"product"},
		),

		FileErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_errors_total",
				Help:      "Total number of source files that could not be read by product",
			},
			[]string{"product"},
		),

		RecordsReadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_read_total",
				Help:      "Total number of time records averaged by product and quantity",
			},
			[]string{"product", "quantity"},
		),

		ReduceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reduce_duration_seconds",
				Help:      "Duration of one product reduction in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"product", "mode"},
		),

		MissingLayers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "missing_layers",
				Help:      "Number of missing layers in the last reduced profile",
			},
			[]string{"product", "quantity"},
		),

		ScreenedLayers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screened_layers_total",
				Help:      "Total number of layers removed by the salinity screen",
			},
			[]string{"product"},
		),

		CollectionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "collection_duration_seconds",
				Help:      "Duration of a full collection build in seconds",
				Buckets:   []float64{0.1, 1, 10, 60, 300, 900, 1800, 3600},
			},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Collection cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss", "error"
		),
	}
}

// Timer provides timing functionality for operations.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer.
func (c *Collector) NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: observer,
	}
}

// ObserveDuration records the elapsed time since timer creation.
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments the API request counter.
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordFileRead counts a source file read, successful or not.
func (c *Collector) RecordFileRead(product string, err error) {
	if err != nil {
		c.FileErrorsTotal.WithLabelValues(product).Inc()
		return
	}
	c.FilesReadTotal.WithLabelValues(product).Inc()
}

// RecordCacheLookup counts a cache lookup result.
func (c *Collector) RecordCacheLookup(result string) {
	c.CacheLookupsTotal.WithLabelValues(result).Inc()
}
