package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/med-schedule-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// scheduling validation gate.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	conflictTotal   *prometheus.CounterVec
	capacityTotal   *prometheus.CounterVec
	submissionTotal *prometheus.CounterVec
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

	conflictTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_detected_total",
		Help: "Submissions rejected by the conflict detector",
	}, []string{"schedule_type", "reason"})

	capacityTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_capacity_rejections_total",
		Help: "Submissions rejected by the capacity validator",
	}, []string{"schedule_type"})

	submissionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_submissions_total",
		Help: "Schedule submissions processed by outcome",
	}, []string{"schedule_type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, conflictTotal, capacityTotal, submissionTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		conflictTotal:   conflictTotal,
		capacityTotal:   capacityTotal,
		submissionTotal: submissionTotal,
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

// RecordConflictRejection counts a submission turned away by the conflict
// detector, one increment per colliding resource dimension.
func (m *MetricsService) RecordConflictRejection(scheduleType models.ScheduleType, reasons []models.ConflictReason) {
	if m == nil {
		return
	}
	for _, reason := range reasons {
		m.conflictTotal.WithLabelValues(string(scheduleType), string(reason)).Inc()
	}
	m.submissionTotal.WithLabelValues(string(scheduleType), "conflict").Inc()
}

// RecordCapacityRejection counts a submission turned away by the capacity
// validator.
func (m *MetricsService) RecordCapacityRejection(scheduleType models.ScheduleType) {
	if m == nil {
		return
	}
	m.capacityTotal.WithLabelValues(string(scheduleType)).Inc()
	m.submissionTotal.WithLabelValues(string(scheduleType), "capacity").Inc()
}

// RecordAcceptedSubmission counts a submission that passed the gate.
func (m *MetricsService) RecordAcceptedSubmission(scheduleType models.ScheduleType) {
	if m == nil {
		return
	}
	m.submissionTotal.WithLabelValues(string(scheduleType), "accepted").Inc()
}
