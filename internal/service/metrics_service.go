package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	pointsAwarded   *prometheus.CounterVec
	awardFailures   prometheus.Counter
	pointResets     prometheus.Counter
	feedEvents      *prometheus.CounterVec
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
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

	pointsAwarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Total point records created, labelled by polarity",
	}, []string{"polarity"})

	awardFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "point_award_failures_total",
		Help: "Total per-student award fan-out failures",
	})

	pointResets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "point_resets_total",
		Help: "Total student point resets",
	})

	feedEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_feed_events_total",
		Help: "Total point events published on the realtime feed",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		pointsAwarded, awardFailures, pointResets, feedEvents, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		pointsAwarded:   pointsAwarded,
		awardFailures:   awardFailures,
		pointResets:     pointResets,
		feedEvents:      feedEvents,
	}
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

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordAward counts one created point record.
func (m *MetricsService) RecordAward(points int) {
	if m == nil {
		return
	}
	polarity := "positive"
	if points < 0 {
		polarity = "negative"
	}
	m.pointsAwarded.WithLabelValues(polarity).Inc()
}

// RecordAwardFailure counts one failed fan-out target.
func (m *MetricsService) RecordAwardFailure() {
	if m == nil {
		return
	}
	m.awardFailures.Inc()
}

// RecordReset counts one student reset.
func (m *MetricsService) RecordReset() {
	if m == nil {
		return
	}
	m.pointResets.Inc()
}

// RecordFeedEvent counts one published feed event.
func (m *MetricsService) RecordFeedEvent(eventType string) {
	if m == nil {
		return
	}
	m.feedEvents.WithLabelValues(eventType).Inc()
}
