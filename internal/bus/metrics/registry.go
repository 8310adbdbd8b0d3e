package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Channel metrics
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	deliveredTotal  *prometheus.CounterVec
	subscribeTotal  *prometheus.CounterVec
	releaseTotal    *prometheus.CounterVec
	activeListeners *prometheus.GaugeVec

	// Store metrics
	storeOperationTotal    *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	storeKeys              *prometheus.GaugeVec

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebus_channel_publish_total",
				Help: "Total number of publish operations",
			},
			[]string{"type", "status"}, // status: success, error
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statebus_channel_publish_duration_seconds",
				Help:    "Time spent delivering an event to all subscribers",
				Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"type"},
		),

		deliveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebus_channel_delivered_total",
				Help: "Total number of handler deliveries",
			},
			[]string{"type"},
		),

		subscribeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebus_channel_subscribe_total",
				Help: "Total number of subscribe operations",
			},
			[]string{"type", "status"}, // status: success, error
		),

		releaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebus_channel_release_total",
				Help: "Total number of released subscriptions",
			},
			[]string{"type"},
		),

		activeListeners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "statebus_channel_active_listeners",
				Help: "Current number of registered handlers per event type",
			},
			[]string{"type"},
		),

		storeOperationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statebus_store_operation_total",
				Help: "Total number of persistent store operations",
			},
			[]string{"prefix", "operation", "status"}, // operation: get, set, remove, clear, ...
		),

		storeOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statebus_store_operation_duration_seconds",
				Help:    "Time spent on persistent store operations",
				Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"prefix", "operation"},
		),

		storeKeys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "statebus_store_keys",
				Help: "Current number of keys under a store prefix",
			},
			[]string{"prefix"},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "statebus_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "statebus_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register application metrics
	registry.MustRegister(
		r.publishTotal,
		r.publishDuration,
		r.deliveredTotal,
		r.subscribeTotal,
		r.releaseTotal,
		r.activeListeners,
		r.storeOperationTotal,
		r.storeOperationDuration,
		r.storeKeys,
		r.systemInfo,
		r.startTime,
	)

	// Set start time
	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordPublish records one publish operation and its fan-out size
func (r *Registry) RecordPublish(eventType string, listeners int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.publishTotal.WithLabelValues(eventType, status).Inc()
	r.publishDuration.WithLabelValues(eventType).Observe(duration.Seconds())
	if err == nil && listeners > 0 {
		r.deliveredTotal.WithLabelValues(eventType).Add(float64(listeners))
	}
}

// RecordSubscribe records a subscribe operation
func (r *Registry) RecordSubscribe(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.subscribeTotal.WithLabelValues(eventType, status).Inc()
}

// RecordRelease records a released subscription
func (r *Registry) RecordRelease(eventType string) {
	r.releaseTotal.WithLabelValues(eventType).Inc()
}

// SetActiveListeners updates the handler gauge for an event type
func (r *Registry) SetActiveListeners(eventType string, count float64) {
	r.activeListeners.WithLabelValues(eventType).Set(count)
}

// RecordStoreOperation records a persistent store operation
func (r *Registry) RecordStoreOperation(prefix, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.storeOperationTotal.WithLabelValues(prefix, operation, status).Inc()
	r.storeOperationDuration.WithLabelValues(prefix, operation).Observe(duration.Seconds())
}

// SetStoreKeys updates the key-count gauge for a store prefix
func (r *Registry) SetStoreKeys(prefix string, count float64) {
	r.storeKeys.WithLabelValues(prefix).Set(count)
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}
