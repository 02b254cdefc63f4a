package entity

import (
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// HealthMetrics - сырые показатели одного цикла опроса
type HealthMetrics struct {
	ResponseTime float64 // ms
	ActiveUsers  int64
	ErrorRate    float64 // %
	MemoryUsage  float64 // %
}

// Alert - сработавшее пороговое правило
type Alert struct {
	Severity      valueobject.Severity
	Metric        valueobject.HealthMetric
	Message       string
	ObservedValue float64
}

// HealthSnapshot представляет результат одного цикла опроса здоровья системы.
// Каждый snapshot независим, статус выводится из метрик детерминированно.
type HealthSnapshot struct {
	timestamp time.Time
	status    valueobject.HealthStatus
	metrics   HealthMetrics
	alerts    []Alert
}

// NewHealthSnapshot создает snapshot
func NewHealthSnapshot(
	timestamp time.Time,
	status valueobject.HealthStatus,
	metrics HealthMetrics,
	alerts []Alert,
) *HealthSnapshot {
	copied := make([]Alert, len(alerts))
	copy(copied, alerts)

	return &HealthSnapshot{
		timestamp: timestamp.UTC(),
		status:    status,
		metrics:   metrics,
		alerts:    copied,
	}
}

// Timestamp возвращает время snapshot'а
func (s *HealthSnapshot) Timestamp() time.Time {
	return s.timestamp
}

// Status возвращает итоговый статус
func (s *HealthSnapshot) Status() valueobject.HealthStatus {
	return s.status
}

// Metrics возвращает сырые показатели
func (s *HealthSnapshot) Metrics() HealthMetrics {
	return s.metrics
}

// Alerts возвращает копию алертов в порядке срабатывания
func (s *HealthSnapshot) Alerts() []Alert {
	result := make([]Alert, len(s.alerts))
	copy(result, s.alerts)
	return result
}

// HasAlerts сообщает, есть ли алерты
func (s *HealthSnapshot) HasAlerts() bool {
	return len(s.alerts) > 0
}
