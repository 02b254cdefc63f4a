package port

import (
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/snapshot"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

// ReportEncoder кодирует отчеты в проводные форматы (Port)
// Ошибки оборачивают errs.ErrEncoding
type ReportEncoder interface {
	Encode(report *entity.Report, format valueobject.ExportFormat) ([]byte, error)
	EncodeValue(value snapshot.Value, format valueobject.ExportFormat) ([]byte, error)
}
