package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the submission pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	submissionsCreated *prometheus.CounterVec
	decisions          *prometheus.CounterVec
	recalcTotal        prometheus.Counter
	recalcDuration     prometheus.Histogram

	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheLatency prometheus.Observer
	cacheWrite   prometheus.Observer
}

// NewMetricsService registers the collectors.
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

	submissionsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_created_total",
		Help: "Submissions accepted by the API, by type and initial status",
	}, []string{"type", "status"})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_decisions_total",
		Help: "Manual approval decisions, by outcome",
	}, []string{"decision"})

	recalcTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "company_recalculations_total",
		Help: "Completed company GPA recalculations",
	})

	recalcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "company_recalculation_seconds",
		Help:    "Duration of company GPA recalculations",
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissionsCreated, decisions,
		recalcTotal, recalcDuration, cacheHits, cacheMisses, cacheLatency, cacheWrite, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		submissionsCreated: submissionsCreated,
		decisions:          decisions,
		recalcTotal:        recalcTotal,
		recalcDuration:     recalcDuration,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
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

// RecordSubmissionCreated counts an accepted submission.
func (m *MetricsService) RecordSubmissionCreated(submissionType models.SubmissionType, status models.ApprovalStatus) {
	if m == nil {
		return
	}
	m.submissionsCreated.WithLabelValues(string(submissionType), string(status)).Inc()
}

// RecordDecision counts a manual approve or reject.
func (m *MetricsService) RecordDecision(status models.ApprovalStatus) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(status)).Inc()
}

// RecordRecalculation counts and times a completed company recalculation.
func (m *MetricsService) RecordRecalculation(duration time.Duration) {
	if m == nil {
		return
	}
	m.recalcTotal.Inc()
	m.recalcDuration.Observe(duration.Seconds())
}

// RecordCacheOperation records a cache hit or miss.
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

// ObserveCacheWrite tracks the duration of cache set operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
