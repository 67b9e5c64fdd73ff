package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// review transactions, notifications and the overview cache.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reviewTotal     *prometheus.CounterVec
	reviewRetries   *prometheus.CounterVec
	folderEvents    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	txDuration      *prometheus.HistogramVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	reviewTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_actions_total",
		Help: "Review actions by kind and outcome",
	}, []string{"action", "outcome"})

	reviewRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_tx_retries_total",
		Help: "Folder transactions retried after a serialization conflict",
	}, []string{"action"})

	folderEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "folder_status_events_total",
		Help: "Folder status transitions that notify recipients",
	}, []string{"event"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Folder notifications by result",
	}, []string{"result"})

	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "review_tx_duration_seconds",
		Help:    "Duration of folder review transactions including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reviewTotal, reviewRetries, folderEvents, notifications, txDuration, cacheLatency, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reviewTotal:     reviewTotal,
		reviewRetries:   reviewRetries,
		folderEvents:    folderEvents,
		notifications:   notifications,
		txDuration:      txDuration,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveReview counts a finished review action. outcome is "ok" or an error code.
func (m *MetricsService) ObserveReview(action, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reviewTotal.WithLabelValues(action, outcome).Inc()
	m.txDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordReviewRetry counts one retried folder transaction.
func (m *MetricsService) RecordReviewRetry(action string) {
	if m == nil {
		return
	}
	m.reviewRetries.WithLabelValues(action).Inc()
}

// RecordFolderEvent counts a folder completion or reopen.
func (m *MetricsService) RecordFolderEvent(event string) {
	if m == nil {
		return
	}
	m.folderEvents.WithLabelValues(event).Inc()
}

// RecordNotification counts a notification result: queued, skipped, dropped, sent or failed.
func (m *MetricsService) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
