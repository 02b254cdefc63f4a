package port

import (
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
)

// ReportMetrics регистрирует показатели генерации и выгрузки отчетов
type ReportMetrics interface {
	ObserveReport(reportType string, outcome string, duration time.Duration)
	ObserveExport(reportType string, format string, outcome string, sizeBytes int)
}

// HealthGauges отражает последний snapshot здоровья в метриках процесса
type HealthGauges interface {
	RecordHealthSnapshot(snapshot *entity.HealthSnapshot)
}
