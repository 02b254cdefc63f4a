package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

const namespace = "recycling_dashboard"

// Metrics объединяет prometheus-коллекторы сервиса.
// Реализует port.ReportMetrics и port.HealthGauges
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	ReportsTotal       *prometheus.CounterVec
	ReportDurationSec  *prometheus.HistogramVec
	ExportsTotal       *prometheus.CounterVec
	ExportSizeBytes    *prometheus.HistogramVec
	HealthValue        *prometheus.GaugeVec
	HealthStatus       *prometheus.GaugeVec
	HealthAlerts       prometheus.Counter
}

// New создает и регистрирует коллекторы в registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		ReportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Total number of assembled reports.",
		}, []string{"report_type", "outcome"}),
		ReportDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Report assembly duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report_type"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of report exports.",
		}, []string{"report_type", "format", "outcome"}),
		ExportSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_size_bytes",
			Help:      "Size of exported report payloads.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"format"}),
		HealthValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_metric",
			Help:      "Last observed health metric value.",
		}, []string{"metric"}),
		HealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_status",
			Help:      "1 for the current health status, 0 otherwise.",
		}, []string{"status"}),
		HealthAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_alerts_total",
			Help:      "Total number of raised health alerts.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.ReportsTotal,
		m.ReportDurationSec,
		m.ExportsTotal,
		m.ExportSizeBytes,
		m.HealthValue,
		m.HealthStatus,
		m.HealthAlerts,
	)

	return m
}

// Handler отдает метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport учитывает сборку отчета
func (m *Metrics) ObserveReport(reportType string, outcome string, duration time.Duration) {
	m.ReportsTotal.WithLabelValues(reportType, outcome).Inc()
	m.ReportDurationSec.WithLabelValues(reportType).Observe(duration.Seconds())
}

// ObserveExport учитывает выгрузку отчета
func (m *Metrics) ObserveExport(reportType string, format string, outcome string, sizeBytes int) {
	m.ExportsTotal.WithLabelValues(reportType, format, outcome).Inc()
	if outcome == "success" {
		m.ExportSizeBytes.WithLabelValues(format).Observe(float64(sizeBytes))
	}
}

// RecordHealthSnapshot обновляет gauge'и по последнему snapshot'у
func (m *Metrics) RecordHealthSnapshot(snapshot *entity.HealthSnapshot) {
	if snapshot == nil {
		return
	}

	metrics := snapshot.Metrics()
	m.HealthValue.WithLabelValues(string(valueobject.ResponseTime)).Set(metrics.ResponseTime)
	m.HealthValue.WithLabelValues(string(valueobject.ActiveUsers)).Set(float64(metrics.ActiveUsers))
	m.HealthValue.WithLabelValues(string(valueobject.ErrorRate)).Set(metrics.ErrorRate)
	m.HealthValue.WithLabelValues(string(valueobject.MemoryUsage)).Set(metrics.MemoryUsage)

	for _, status := range []valueobject.HealthStatus{valueobject.Healthy, valueobject.Warning, valueobject.Failing} {
		value := 0.0
		if snapshot.Status() == status {
			value = 1
		}
		m.HealthStatus.WithLabelValues(status.String()).Set(value)
	}

	m.HealthAlerts.Add(float64(len(snapshot.Alerts())))
}

// Middleware считает HTTP-запросы по нормализованному маршруту
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute ограничивает кардинальность метки route
func normalizeRoute(path string) string {
	switch {
	case path == "/ws/health":
		return "/ws/health"
	case path == "/metrics", path == "/healthz", path == "/readyz":
		return path
	case strings.HasPrefix(path, "/api/v1/reports/exports"):
		return "/api/v1/reports/exports"
	case strings.HasPrefix(path, "/api/v1/reports/"):
		return "/api/v1/reports/*"
	case strings.HasPrefix(path, "/api/v1/health"):
		return "/api/v1/health/*"
	case strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack нужен для websocket upgrade
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
