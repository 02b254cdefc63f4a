package valueobject

import (
	"fmt"
	"strings"

	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

// ReportType представляет тип отчета (Value Object)
type ReportType string

const (
	Usage         ReportType = "usage"
	Performance   ReportType = "performance"
	Engagement    ReportType = "engagement"
	Environmental ReportType = "environmental"
	Financial     ReportType = "financial"
	Comprehensive ReportType = "comprehensive"
)

// ParseReportType нормализует и проверяет тип отчета
func ParseReportType(raw string) (ReportType, error) {
	rt := ReportType(strings.ToLower(strings.TrimSpace(raw)))
	if err := rt.Validate(); err != nil {
		return "", err
	}
	return rt, nil
}

// Validate проверяет валидность типа отчета
func (rt ReportType) Validate() error {
	switch rt {
	case Usage, Performance, Engagement, Environmental, Financial, Comprehensive:
		return nil
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownReportType, string(rt))
	}
}

// IsComposite сообщает, собирается ли отчет из нескольких источников
func (rt ReportType) IsComposite() bool {
	return rt == Comprehensive
}

// String возвращает строковое представление типа отчета
func (rt ReportType) String() string {
	return string(rt)
}

// SourceReportTypes возвращает типы, которым соответствует ровно один источник.
// Порядок фиксирован и определяет порядок ключей comprehensive отчета.
func SourceReportTypes() []ReportType {
	return []ReportType{Usage, Performance, Engagement, Environmental, Financial}
}

// AllReportTypes возвращает список всех допустимых типов отчетов
func AllReportTypes() []ReportType {
	return append(SourceReportTypes(), Comprehensive)
}
