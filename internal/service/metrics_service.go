package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// scoring pipeline.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	scoresRecorded    *prometheus.CounterVec
	contestsCompleted prometheus.Counter
	winnersAssigned   prometheus.Counter
	exportsFinished   *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	queueDepth        prometheus.Gauge
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

	scoresRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scores_recorded_total",
		Help: "Total number of scores recorded, by contest",
	}, []string{"contest"})

	contestsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contests_completed_total",
		Help: "Total number of contests that reached completed status",
	})

	winnersAssigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "winners_assigned_total",
		Help: "Total number of winner assignments persisted",
	})

	exportsFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_finished_total",
		Help: "Total number of finished export jobs, by format",
	}, []string{"format"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "results_cache_hits_total",
		Help: "Total results cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "results_cache_misses_total",
		Help: "Total results cache misses",
	})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "export_queue_depth",
		Help: "Number of export jobs waiting in the queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scoresRecorded, contestsCompleted, winnersAssigned, exportsFinished, cacheHits, cacheMisses, queueDepth, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		scoresRecorded:    scoresRecorded,
		contestsCompleted: contestsCompleted,
		winnersAssigned:   winnersAssigned,
		exportsFinished:   exportsFinished,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		queueDepth:        queueDepth,
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

// ScoreRecorded counts a persisted score for one contest.
func (m *MetricsService) ScoreRecorded(contestID string) {
	if m == nil {
		return
	}
	m.scoresRecorded.WithLabelValues(contestID).Inc()
}

// ContestCompleted counts a contest reaching fully-scored status.
func (m *MetricsService) ContestCompleted() {
	if m == nil {
		return
	}
	m.contestsCompleted.Inc()
}

// WinnerAssigned counts a persisted winner assignment.
func (m *MetricsService) WinnerAssigned() {
	if m == nil {
		return
	}
	m.winnersAssigned.Inc()
}

// ExportFinished counts a finished export job.
func (m *MetricsService) ExportFinished(format string) {
	if m == nil {
		return
	}
	m.exportsFinished.WithLabelValues(format).Inc()
}

// RecordCacheOperation counts results cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// SetQueueDepth reports the current export queue backlog.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
