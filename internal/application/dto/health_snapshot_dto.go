package dto

import (
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
)

// HealthMetricsDTO представляет сырые метрики здоровья
type HealthMetricsDTO struct {
	ResponseTime float64 `json:"responseTime"`
	ActiveUsers  int64   `json:"activeUsers"`
	ErrorRate    float64 `json:"errorRate"`
	MemoryUsage  float64 `json:"memoryUsage"`
}

// HealthSnapshotDTO представляет snapshot здоровья
// Используется для передачи через WebSocket и HTTP
type HealthSnapshotDTO struct {
	Timestamp time.Time        `json:"timestamp"`
	Status    string           `json:"status"`
	Metrics   HealthMetricsDTO `json:"metrics"`
	Alerts    []*AlertDTO      `json:"alerts"`
}

// AlertDTO представляет alert для отправки клиентам
type AlertDTO struct {
	Timestamp     time.Time `json:"timestamp"`
	Severity      string    `json:"severity"` // "warning", "error"
	Metric        string    `json:"metric"`
	Message       string    `json:"message"`
	ObservedValue float64   `json:"observedValue"`
}

// FromHealthSnapshot конвертирует Domain Entity в DTO
func FromHealthSnapshot(snapshot *entity.HealthSnapshot) *HealthSnapshotDTO {
	metrics := snapshot.Metrics()
	alerts := snapshot.Alerts()

	result := &HealthSnapshotDTO{
		Timestamp: snapshot.Timestamp(),
		Status:    snapshot.Status().String(),
		Metrics: HealthMetricsDTO{
			ResponseTime: metrics.ResponseTime,
			ActiveUsers:  metrics.ActiveUsers,
			ErrorRate:    metrics.ErrorRate,
			MemoryUsage:  metrics.MemoryUsage,
		},
		Alerts: make([]*AlertDTO, 0, len(alerts)),
	}

	for _, a := range alerts {
		result.Alerts = append(result.Alerts, NewAlertDTO(snapshot.Timestamp(), a))
	}

	return result
}

// NewAlertDTO создает новый alert
func NewAlertDTO(timestamp time.Time, alert entity.Alert) *AlertDTO {
	return &AlertDTO{
		Timestamp:     timestamp,
		Severity:      alert.Severity.String(),
		Metric:        string(alert.Metric),
		Message:       alert.Message,
		ObservedValue: alert.ObservedValue,
	}
}
