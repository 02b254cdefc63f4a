package valueobject

// HealthStatus - итоговое состояние системы в snapshot'е здоровья
type HealthStatus string

const (
	Healthy HealthStatus = "healthy"
	Warning HealthStatus = "warning"
	Failing HealthStatus = "error"
)

// String возвращает строковое представление статуса
func (s HealthStatus) String() string {
	return string(s)
}

// Severity - уровень алерта
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// String возвращает строковое представление уровня
func (s Severity) String() string {
	return string(s)
}

// HealthMetric идентифицирует метрику, по которой сработал алерт
type HealthMetric string

const (
	ResponseTime HealthMetric = "responseTime"
	ActiveUsers  HealthMetric = "activeUsers"
	ErrorRate    HealthMetric = "errorRate"
	MemoryUsage  HealthMetric = "memoryUsage"
	ProbeFailure HealthMetric = "probe"
)
