package service

import (
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// Threshold - пороговое правило для одной метрики (значение >= порога)
type Threshold struct {
	Metric  valueobject.HealthMetric
	Warning float64
	Error   float64
	Message string
}

// DefaultThresholds возвращает правила в порядке проверки
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Metric: valueobject.ResponseTime, Warning: 200, Error: 500, Message: "high response time"},
		{Metric: valueobject.MemoryUsage, Warning: 80, Error: 90, Message: "high memory usage"},
		{Metric: valueobject.ErrorRate, Warning: 1, Error: 5, Message: "high error rate"},
	}
}

// HealthEvaluator выводит статус и алерты из сырых метрик (Domain Service)
type HealthEvaluator struct {
	thresholds []Threshold
}

// NewHealthEvaluator создает новый HealthEvaluator с порогами по умолчанию
func NewHealthEvaluator() *HealthEvaluator {
	return NewHealthEvaluatorWithThresholds(DefaultThresholds())
}

// NewHealthEvaluatorWithThresholds создает HealthEvaluator с заданными порогами
func NewHealthEvaluatorWithThresholds(thresholds []Threshold) *HealthEvaluator {
	copied := make([]Threshold, len(thresholds))
	copy(copied, thresholds)
	return &HealthEvaluator{thresholds: copied}
}

// Evaluate строит snapshot по метрикам
func (e *HealthEvaluator) Evaluate(timestamp time.Time, metrics entity.HealthMetrics) *entity.HealthSnapshot {
	var alerts []entity.Alert

	for _, th := range e.thresholds {
		observed, ok := metricValue(metrics, th.Metric)
		if !ok {
			continue
		}

		switch {
		case observed >= th.Error:
			alerts = append(alerts, entity.Alert{
				Severity:      valueobject.SeverityError,
				Metric:        th.Metric,
				Message:       th.Message,
				ObservedValue: observed,
			})
		case observed >= th.Warning:
			alerts = append(alerts, entity.Alert{
				Severity:      valueobject.SeverityWarning,
				Metric:        th.Metric,
				Message:       th.Message,
				ObservedValue: observed,
			})
		}
	}

	return entity.NewHealthSnapshot(timestamp, StatusFor(alerts), metrics, alerts)
}

// Degraded строит snapshot для неудачного опроса
func (e *HealthEvaluator) Degraded(timestamp time.Time, cause error) *entity.HealthSnapshot {
	message := "health probe failed"
	if cause != nil {
		message += ": " + cause.Error()
	}

	alerts := []entity.Alert{{
		Severity:      valueobject.SeverityError,
		Metric:        valueobject.ProbeFailure,
		Message:       message,
		ObservedValue: 0,
	}}

	return entity.NewHealthSnapshot(timestamp, valueobject.Failing, entity.HealthMetrics{}, alerts)
}

// StatusFor сворачивает алерты в итоговый статус
func StatusFor(alerts []entity.Alert) valueobject.HealthStatus {
	status := valueobject.Healthy
	for _, a := range alerts {
		if a.Severity == valueobject.SeverityError {
			return valueobject.Failing
		}
		status = valueobject.Warning
	}
	return status
}

func metricValue(m entity.HealthMetrics, metric valueobject.HealthMetric) (float64, bool) {
	switch metric {
	case valueobject.ResponseTime:
		return m.ResponseTime, true
	case valueobject.MemoryUsage:
		return m.MemoryUsage, true
	case valueobject.ErrorRate:
		return m.ErrorRate, true
	case valueobject.ActiveUsers:
		return float64(m.ActiveUsers), true
	default:
		return 0, false
	}
}
