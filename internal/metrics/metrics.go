// Package metrics provides Prometheus metrics for r2drive.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r2drive_cache_lookups_total",
			Help: "Keyed request cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r2drive_operations_total",
			Help: "Session operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "r2drive_operation_duration_seconds",
			Help:    "Duration of storage calls made by session operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	optimisticDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "r2drive_optimistic_dispatches_total",
			Help: "Optimistic projection updates applied before confirmation",
		},
		[]string{"list"},
	)

	uploadsQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "r2drive_uploads_queued",
			Help: "Number of uploads waiting in the queue",
		},
	)
)

// RecordCacheHit records a cache hit
func RecordCacheHit(cache string) {
	cacheLookupsTotal.WithLabelValues(cache, "hit").Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cache string) {
	cacheLookupsTotal.WithLabelValues(cache, "miss").Inc()
}

// RecordOperation records the outcome and duration of a session operation
func RecordOperation(operation string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOptimistic records an optimistic dispatch on the named list
func RecordOptimistic(list string) {
	optimisticDispatches.WithLabelValues(list).Inc()
}

// SetUploadsQueued sets the upload queue length
func SetUploadsQueued(n int) {
	uploadsQueued.Set(float64(n))
}

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logrus.Infof("Serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("Metrics server stopped: %v", err)
		}
	}()
}
