package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/ws/health", "/ws/health"},
		{"/metrics", "/metrics"},
		{"/api/v1/reports/exports", "/api/v1/reports/exports"},
		{"/api/v1/reports/usage", "/api/v1/reports/*"},
		{"/api/v1/reports/usage/export", "/api/v1/reports/*"},
		{"/api/v1/health/snapshot", "/api/v1/health/*"},
		{"/api/v2/other", "/api/*"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.expected {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New(prometheus.NewRegistry())

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/unknown", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/v1/reports/*", http.MethodGet, "400"))
	if got != 1 {
		t.Errorf("Expected 1 request counted, got %v", got)
	}
}

func TestObserveReportAndExport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReport("usage", "success", 20*time.Millisecond)
	m.ObserveReport("usage", "error", time.Millisecond)
	m.ObserveExport("usage", "csv", "success", 1024)

	if got := testutil.ToFloat64(m.ReportsTotal.WithLabelValues("usage", "success")); got != 1 {
		t.Errorf("Expected 1 successful report, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReportsTotal.WithLabelValues("usage", "error")); got != 1 {
		t.Errorf("Expected 1 failed report, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("usage", "csv", "success")); got != 1 {
		t.Errorf("Expected 1 export, got %v", got)
	}
}

func TestRecordHealthSnapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	snapshot := entity.NewHealthSnapshot(time.Now(), valueobject.Failing, entity.HealthMetrics{
		ResponseTime: 600,
		ActiveUsers:  12,
		ErrorRate:    0.2,
		MemoryUsage:  40,
	}, []entity.Alert{{
		Severity:      valueobject.SeverityError,
		Metric:        valueobject.ResponseTime,
		Message:       "high response time",
		ObservedValue: 600,
	}})

	m.RecordHealthSnapshot(snapshot)

	if got := testutil.ToFloat64(m.HealthValue.WithLabelValues("responseTime")); got != 600 {
		t.Errorf("Expected responseTime gauge 600, got %v", got)
	}
	if got := testutil.ToFloat64(m.HealthStatus.WithLabelValues("error")); got != 1 {
		t.Errorf("Expected error status gauge 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.HealthStatus.WithLabelValues("healthy")); got != 0 {
		t.Errorf("Expected healthy status gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.HealthAlerts); got != 1 {
		t.Errorf("Expected 1 alert counted, got %v", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveReport("financial", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "recycling_dashboard_reports_total") {
		t.Error("Expected reports_total in exposition")
	}
}
